package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
	pkgerrors "paceclass/backend/pkg/errors"
)

// ── 进度模块业务错误 ──

var (
	ErrProgressRecordNotFound   = errors.New("进度记录不存在")
	ErrSlotNotFound             = errors.New("课程安排不存在")
	ErrTopicNotFound            = errors.New("课题不存在")
	ErrBlockedPrerequisite      = errors.New("前置课时未完成，当前课时不可访问")
	ErrBlockedPendingAssessment = errors.New("教师测评尚未就绪，当前课时不可访问")
	ErrMarkedIncomplete         = errors.New("该课时已标记未完成，不再接受完成提交")
	ErrCompletedRecord          = errors.New("该课时已完成，不能标记未完成")
	ErrNotMarkedIncomplete      = errors.New("该课时未处于未完成标记状态")
	ErrNotOwnRecord             = errors.New("只能操作本人的进度记录")
	ErrTopicSubjectMismatch     = errors.New("课题与时段科目不一致")
	ErrTopicNotMissing          = errors.New("该时段无需补挂课题")
)

// ProgressService 进度台账业务接口
//
// 完成/未完成转移都是条件更新（CAS 语义）：谓词在存储层判定，
// 与清扫任务的竞争通过 RowsAffected = 0 显式暴露，而非读-改-写覆盖
type ProgressService interface {
	ListForStudent(ctx context.Context, studentID string, req *dto.ProgressListRequest) ([]dto.ProgressRecordResponse, error)
	GetAccessState(ctx context.Context, recordID string) (*dto.AccessStateResponse, error)
	MarkComplete(ctx context.Context, recordID, callerID string) (*dto.ProgressRecordResponse, error)
	MarkIncomplete(ctx context.Context, recordID, callerID string) (*dto.ProgressRecordResponse, error)
	ClearIncomplete(ctx context.Context, recordID string, req *dto.ClearIncompleteRequest, callerID string) error
	AttachTopic(ctx context.Context, req *dto.AttachTopicRequest, callerID string) error
}

type progressService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewProgressService 创建 ProgressService 实例
func NewProgressService(repo *repository.Repository, logger *zap.Logger) ProgressService {
	return &progressService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── ListForStudent ──────────────────────

func (s *progressService) ListForStudent(ctx context.Context, studentID string, req *dto.ProgressListRequest) ([]dto.ProgressRecordResponse, error) {
	var (
		records []model.ProgressRecord
		err     error
	)
	switch {
	case req.DateFrom != "" && req.DateTo != "":
		from, perr := time.ParseInLocation(dateLayout, req.DateFrom, institutionLocation())
		if perr != nil {
			return nil, perr
		}
		to, perr := time.ParseInLocation(dateLayout, req.DateTo, institutionLocation())
		if perr != nil {
			return nil, perr
		}
		records, err = s.repo.ProgressRecord.ListByStudentDateRange(ctx, studentID, from, to)
	case req.TermID != "":
		records, err = s.repo.ProgressRecord.ListByStudentTerm(ctx, studentID, req.TermID)
	default:
		term, terr := s.repo.Term.GetActive(ctx)
		if terr != nil {
			if errors.Is(terr, gorm.ErrRecordNotFound) {
				return []dto.ProgressRecordResponse{}, nil
			}
			s.logger.Error("查询当前学期失败", zap.Error(terr))
			return nil, terr
		}
		records, err = s.repo.ProgressRecord.ListByStudentTerm(ctx, studentID, term.TermID)
	}
	if err != nil {
		s.logger.Error("查询进度记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	// 链上前置记录用索引查，避免逐条回库
	byID := make(map[string]*model.ProgressRecord, len(records))
	for i := range records {
		byID[records[i].RecordID] = &records[i]
	}

	now := s.now()
	result := make([]dto.ProgressRecordResponse, 0, len(records))
	for i := range records {
		rec := &records[i]
		previous, err := s.resolvePrevious(ctx, rec, byID)
		if err != nil {
			return nil, err
		}
		result = append(result, *toProgressResponse(rec, EvaluateAccess(now, rec, previous)))
	}
	return result, nil
}

// resolvePrevious 取链上前一课时的记录；优先走内存索引
func (s *progressService) resolvePrevious(ctx context.Context, rec *model.ProgressRecord, byID map[string]*model.ProgressRecord) (*model.ProgressRecord, error) {
	if rec.PreviousRecordID == nil {
		return nil, nil
	}
	if byID != nil {
		if prev, ok := byID[*rec.PreviousRecordID]; ok {
			return prev, nil
		}
	}
	prev, err := s.repo.ProgressRecord.GetByID(ctx, *rec.PreviousRecordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 前置记录已归档：视为无前置，不阻塞当前课时
			return nil, nil
		}
		s.logger.Error("查询前置进度记录失败", zap.String("id", *rec.PreviousRecordID), zap.Error(err))
		return nil, err
	}
	return prev, nil
}

// ────────────────────── GetAccessState ──────────────────────

func (s *progressService) GetAccessState(ctx context.Context, recordID string) (*dto.AccessStateResponse, error) {
	rec, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	previous, err := s.resolvePrevious(ctx, rec, nil)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &dto.AccessStateResponse{
		RecordID:    rec.RecordID,
		AccessState: EvaluateAccess(now, rec, previous),
		EvaluatedAt: fmtTime(now),
	}, nil
}

// ────────────────────── MarkComplete ──────────────────────

// MarkComplete 完成提交
//
// 接受时机：清扫任务盖章前的任意时刻（含窗口开启前与窗口刚过期、
// 尚未被清扫的间隙）。已盖章的记录一律拒绝——迟到完成与清扫的竞争
// 以"拒绝"为准，不覆盖已有标记。重复完成为幂等成功。
func (s *progressService) MarkComplete(ctx context.Context, recordID, callerID string) (*dto.ProgressRecordResponse, error) {
	rec, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.StudentID != callerID {
		return nil, ErrNotOwnRecord
	}
	if rec.Completed {
		return toProgressResponse(rec, AccessCompleted), nil
	}

	previous, err := s.resolvePrevious(ctx, rec, nil)
	if err != nil {
		return nil, err
	}
	now := s.now()
	switch EvaluateAccess(now, rec, previous) {
	case AccessBlockedPrerequisite:
		return nil, ErrBlockedPrerequisite
	case AccessBlockedPendingAssessment:
		return nil, ErrBlockedPendingAssessment
	}
	if rec.IncompleteReason != nil {
		return nil, ErrMarkedIncomplete
	}

	if err := s.completeInTx(ctx, rec, now); err != nil {
		if errors.Is(err, pkgerrors.ErrStaleState) {
			// 读与写之间被清扫任务抢先盖章
			return nil, ErrMarkedIncomplete
		}
		return nil, err
	}

	rec, err = s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return toProgressResponse(rec, AccessCompleted), nil
}

// completeInTx 台账与时段在同一事务内完成转移
func (s *progressService) completeInTx(ctx context.Context, rec *model.ProgressRecord, now time.Time) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.ProgressRecord.MarkCompleted(ctx, rec.RecordID, now); err != nil {
		txRollback(tx)
		if !errors.Is(err, pkgerrors.ErrStaleState) {
			s.logger.Error("完成进度记录失败", zap.String("record_id", rec.RecordID), zap.Error(err))
		}
		return err
	}
	if err := txRepo.ScheduleSlot.MarkCompleted(ctx, rec.SlotID, now); err != nil {
		txRollback(tx)
		if !errors.Is(err, pkgerrors.ErrStaleState) {
			s.logger.Error("完成课程安排失败", zap.String("slot_id", rec.SlotID), zap.Error(err))
		}
		return err
	}
	return txCommit(tx)
}

// ────────────────────── MarkIncomplete ──────────────────────

// MarkIncomplete 学生主动标记未完成；重复标记为幂等成功
func (s *progressService) MarkIncomplete(ctx context.Context, recordID, callerID string) (*dto.ProgressRecordResponse, error) {
	rec, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.StudentID != callerID {
		return nil, ErrNotOwnRecord
	}
	if rec.Completed {
		return nil, ErrCompletedRecord
	}
	if rec.IncompleteReason != nil {
		return toProgressResponse(rec, AccessMissed), nil
	}

	now := s.now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.ProgressRecord.MarkIncomplete(ctx, rec.RecordID, model.IncompleteReasonStudentMarked, now); err != nil {
		txRollback(tx)
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return nil, ErrCompletedRecord
		}
		s.logger.Error("标记未完成失败", zap.String("record_id", rec.RecordID), zap.Error(err))
		return nil, err
	}
	if err := txRepo.ScheduleSlot.MarkIncomplete(ctx, rec.SlotID, model.IncompleteReasonStudentMarked); err != nil {
		txRollback(tx)
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return nil, ErrCompletedRecord
		}
		s.logger.Error("标记课程安排未完成失败", zap.String("slot_id", rec.SlotID), zap.Error(err))
		return nil, err
	}
	if err := txCommit(tx); err != nil {
		return nil, err
	}

	rec, err = s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return toProgressResponse(rec, AccessMissed), nil
}

// ────────────────────── ClearIncomplete ──────────────────────

// ClearIncomplete 教师撤销未完成标记，记录回到可完成状态
func (s *progressService) ClearIncomplete(ctx context.Context, recordID string, req *dto.ClearIncompleteRequest, callerID string) error {
	rec, err := s.getRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.IncompleteReason == nil {
		return ErrNotMarkedIncomplete
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.ProgressRecord.ClearIncomplete(ctx, rec.RecordID, callerID); err != nil {
		txRollback(tx)
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return ErrNotMarkedIncomplete
		}
		s.logger.Error("撤销未完成标记失败", zap.String("record_id", rec.RecordID), zap.Error(err))
		return err
	}
	if err := txRepo.ScheduleSlot.ClearIncomplete(ctx, rec.SlotID, callerID); err != nil {
		txRollback(tx)
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return ErrNotMarkedIncomplete
		}
		s.logger.Error("撤销课程安排未完成标记失败", zap.String("slot_id", rec.SlotID), zap.Error(err))
		return err
	}

	s.logger.Info("教师撤销未完成标记",
		zap.String("record_id", recordID),
		zap.String("teacher_id", callerID),
		zap.String("reason", req.Reason))
	return txCommit(tx)
}

// ────────────────────── AttachTopic ──────────────────────

// AttachTopic 为课题缺失的降级时段补挂课题，时段随之恢复可完成
func (s *progressService) AttachTopic(ctx context.Context, req *dto.AttachTopicRequest, callerID string) error {
	slot, err := s.repo.ScheduleSlot.GetByID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		s.logger.Error("查询课程安排失败", zap.String("slot_id", req.SlotID), zap.Error(err))
		return err
	}
	if !slot.MissingTopic {
		return ErrTopicNotMissing
	}

	topic, err := s.repo.Topic.GetByID(ctx, req.TopicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTopicNotFound
		}
		s.logger.Error("查询课题失败", zap.String("topic_id", req.TopicID), zap.Error(err))
		return err
	}
	if topic.SubjectID != slot.SubjectID {
		return ErrTopicSubjectMismatch
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.ScheduleSlot.AttachTopic(ctx, slot.SlotID, topic.TopicID, callerID); err != nil {
		txRollback(tx)
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return ErrTopicNotMissing
		}
		s.logger.Error("补挂课题失败", zap.String("slot_id", slot.SlotID), zap.Error(err))
		return err
	}

	record, err := txRepo.ProgressRecord.GetBySlot(ctx, slot.SlotID)
	if err != nil {
		txRollback(tx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProgressRecordNotFound
		}
		s.logger.Error("查询时段对应进度记录失败", zap.String("slot_id", slot.SlotID), zap.Error(err))
		return err
	}
	if err := txRepo.ProgressRecord.AttachTopic(ctx, record.RecordID, topic.TopicID, callerID); err != nil {
		txRollback(tx)
		s.logger.Error("进度记录补挂课题失败", zap.String("record_id", record.RecordID), zap.Error(err))
		return err
	}
	return txCommit(tx)
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *progressService) getRecord(ctx context.Context, recordID string) (*model.ProgressRecord, error) {
	rec, err := s.repo.ProgressRecord.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgressRecordNotFound
		}
		s.logger.Error("查询进度记录失败", zap.String("record_id", recordID), zap.Error(err))
		return nil, err
	}
	return rec, nil
}
