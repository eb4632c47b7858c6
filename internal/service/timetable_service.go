package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/repository"
)

// ── 课表模块业务错误 ──

var (
	ErrTimetableEntryNotFound = errors.New("课表条目不存在")
	ErrICSNoEntries           = errors.New("ICS 中没有可导入的课程事件")
)

// TimetableService 个人周课表业务接口
//
// 写操作完成后返回的课表附带冲突报告，录入侧即时看到问题
type TimetableService interface {
	Get(ctx context.Context, studentID string) (*dto.TimetableResponse, error)
	CreateEntry(ctx context.Context, studentID string, req *dto.TimetableEntryRequest, callerID string) (*dto.TimetableEntryResponse, error)
	UpdateEntry(ctx context.Context, entryID string, req *dto.TimetableEntryRequest, callerID string) (*dto.TimetableEntryResponse, error)
	DeleteEntry(ctx context.Context, entryID string, callerID string) error
	// Replace 整表替换：旧条目软删除后批量写入
	Replace(ctx context.Context, studentID string, req *dto.ReplaceTimetableRequest, callerID string) (*dto.TimetableResponse, error)
	// ImportICS 从 iCalendar 内容导入课表（整表替换语义）
	ImportICS(ctx context.Context, studentID string, req *dto.ImportICSRequest, callerID string) (*dto.ImportICSResponse, error)
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *timetableService) Get(ctx context.Context, studentID string) (*dto.TimetableResponse, error) {
	entries, err := s.repo.TimetableEntry.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return s.toTimetableResponse(studentID, entries), nil
}

// ────────────────────── CreateEntry ──────────────────────

func (s *timetableService) CreateEntry(ctx context.Context, studentID string, req *dto.TimetableEntryRequest, callerID string) (*dto.TimetableEntryResponse, error) {
	entry := &model.TimetableEntry{
		StudentID:   studentID,
		DayOfWeek:   strings.ToUpper(req.DayOfWeek),
		SubjectName: req.SubjectName,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Source:      "manual",
	}
	s.resolveSubjectID(ctx, entry)
	entry.CreatedBy = &callerID
	entry.UpdatedBy = &callerID

	if err := s.repo.TimetableEntry.Create(ctx, entry); err != nil {
		s.logger.Error("创建课表条目失败", zap.Error(err))
		return nil, err
	}
	return toTimetableEntryResponse(entry), nil
}

// ────────────────────── UpdateEntry ──────────────────────

func (s *timetableService) UpdateEntry(ctx context.Context, entryID string, req *dto.TimetableEntryRequest, callerID string) (*dto.TimetableEntryResponse, error) {
	entry, err := s.repo.TimetableEntry.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableEntryNotFound
		}
		s.logger.Error("查询课表条目失败", zap.String("id", entryID), zap.Error(err))
		return nil, err
	}

	entry.DayOfWeek = strings.ToUpper(req.DayOfWeek)
	entry.SubjectName = req.SubjectName
	entry.StartTime = req.StartTime
	entry.EndTime = req.EndTime
	entry.SubjectID = nil
	s.resolveSubjectID(ctx, entry)
	entry.UpdatedBy = &callerID

	if err := s.repo.TimetableEntry.Update(ctx, entry); err != nil {
		s.logger.Error("更新课表条目失败", zap.String("id", entryID), zap.Error(err))
		return nil, err
	}
	return toTimetableEntryResponse(entry), nil
}

// ────────────────────── DeleteEntry ──────────────────────

func (s *timetableService) DeleteEntry(ctx context.Context, entryID string, callerID string) error {
	if _, err := s.repo.TimetableEntry.GetByID(ctx, entryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimetableEntryNotFound
		}
		s.logger.Error("查询课表条目失败", zap.String("id", entryID), zap.Error(err))
		return err
	}
	if err := s.repo.TimetableEntry.Delete(ctx, entryID, callerID); err != nil {
		s.logger.Error("删除课表条目失败", zap.String("id", entryID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Replace ──────────────────────

func (s *timetableService) Replace(ctx context.Context, studentID string, req *dto.ReplaceTimetableRequest, callerID string) (*dto.TimetableResponse, error) {
	entries := make([]model.TimetableEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entry := model.TimetableEntry{
			StudentID:   studentID,
			DayOfWeek:   strings.ToUpper(e.DayOfWeek),
			SubjectName: e.SubjectName,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			Source:      "manual",
		}
		s.resolveSubjectID(ctx, &entry)
		entry.CreatedBy = &callerID
		entry.UpdatedBy = &callerID
		entries = append(entries, entry)
	}

	if err := s.replaceInTx(ctx, studentID, entries, callerID); err != nil {
		return nil, err
	}

	stored, err := s.repo.TimetableEntry.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return s.toTimetableResponse(studentID, stored), nil
}

// ────────────────────── ImportICS ──────────────────────

func (s *timetableService) ImportICS(ctx context.Context, studentID string, req *dto.ImportICSRequest, callerID string) (*dto.ImportICSResponse, error) {
	parsed, warnings, err := ParseTimetableICS(strings.NewReader(req.ICSContent), studentID)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, ErrICSNoEntries
	}

	for i := range parsed {
		s.resolveSubjectID(ctx, &parsed[i])
		parsed[i].CreatedBy = &callerID
		parsed[i].UpdatedBy = &callerID
	}

	if err := s.replaceInTx(ctx, studentID, parsed, callerID); err != nil {
		return nil, err
	}

	stored, err := s.repo.TimetableEntry.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	responses := make([]dto.TimetableEntryResponse, 0, len(stored))
	for i := range stored {
		responses = append(responses, *toTimetableEntryResponse(&stored[i]))
	}
	s.logger.Info("ICS 课表导入完成",
		zap.String("student_id", studentID),
		zap.Int("imported", len(parsed)),
		zap.Int("warnings", len(warnings)))

	return &dto.ImportICSResponse{
		Imported:  len(parsed),
		Skipped:   len(warnings),
		Warnings:  warnings,
		Entries:   responses,
		Conflicts: DetectConflicts(stored),
	}, nil
}

// ────────────────────── 内部辅助 ──────────────────────

// replaceInTx 整表替换：软删除旧条目 + 批量写入，同一事务
func (s *timetableService) replaceInTx(ctx context.Context, studentID string, entries []model.TimetableEntry, callerID string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.TimetableEntry.DeleteByStudent(ctx, studentID, callerID); err != nil {
		txRollback(tx)
		s.logger.Error("清空旧课表失败", zap.String("student_id", studentID), zap.Error(err))
		return err
	}
	if err := txRepo.TimetableEntry.BatchCreate(ctx, entries); err != nil {
		txRollback(tx)
		s.logger.Error("写入课表失败", zap.String("student_id", studentID), zap.Error(err))
		return err
	}
	return txCommit(tx)
}

// resolveSubjectID 按名称关联已登记科目；未登记时留空，生成时再建档
func (s *timetableService) resolveSubjectID(ctx context.Context, entry *model.TimetableEntry) {
	subject, err := s.repo.Subject.GetByName(ctx, entry.SubjectName)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询科目失败", zap.String("name", entry.SubjectName), zap.Error(err))
		}
		return
	}
	entry.SubjectID = &subject.SubjectID
}

func (s *timetableService) toTimetableResponse(studentID string, entries []model.TimetableEntry) *dto.TimetableResponse {
	responses := make([]dto.TimetableEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, *toTimetableEntryResponse(&entries[i]))
	}
	return &dto.TimetableResponse{
		StudentID: studentID,
		Entries:   responses,
		Conflicts: DetectConflicts(entries),
	}
}
