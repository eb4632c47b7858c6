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
)

// ── 自定义评估模块业务错误 ──

var (
	ErrAssessmentNotFound     = errors.New("评估不存在")
	ErrAssessmentNotRequired  = errors.New("该课时不要求自定义评估")
	ErrAssessmentAlreadyReady = errors.New("该课时评估已就绪")
	ErrAssessmentWrongStudent = errors.New("评估目标学生与进度记录不一致")
)

// AssessmentService 自定义评估业务接口
//
// 多课时课题第 2 节起被 BLOCKED_PENDING_ASSESSMENT 阻塞，
// 教师为该学生编写评估后解除
type AssessmentService interface {
	Create(ctx context.Context, req *dto.CreateAssessmentRequest, teacherID string) (*dto.AssessmentResponse, error)
	Submit(ctx context.Context, req *dto.SubmitAssessmentRequest, studentID string) (*dto.SubmissionResponse, error)
	ListByStudent(ctx context.Context, studentID string) ([]dto.AssessmentResponse, error)
}

type assessmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAssessmentService 创建 AssessmentService 实例
func NewAssessmentService(repo *repository.Repository, logger *zap.Logger) AssessmentService {
	return &assessmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *assessmentService) Create(ctx context.Context, req *dto.CreateAssessmentRequest, teacherID string) (*dto.AssessmentResponse, error) {
	record, err := s.repo.ProgressRecord.GetByID(ctx, req.RecordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgressRecordNotFound
		}
		s.logger.Error("查询进度记录失败", zap.String("record_id", req.RecordID), zap.Error(err))
		return nil, err
	}
	if record.StudentID != req.StudentID {
		return nil, ErrAssessmentWrongStudent
	}
	if !record.RequiresCustomAssessment {
		return nil, ErrAssessmentNotRequired
	}
	if record.CustomAssessmentReady {
		return nil, ErrAssessmentAlreadyReady
	}

	assessment := &model.CustomAssessment{
		TeacherID: teacherID,
		StudentID: req.StudentID,
		RecordID:  req.RecordID,
		Title:     req.Title,
		ReadyAt:   time.Now(),
	}
	assessment.CreatedBy = &teacherID
	assessment.UpdatedBy = &teacherID

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.CustomAssessment.Create(ctx, assessment); err != nil {
		txRollback(tx)
		s.logger.Error("创建评估失败", zap.Error(err))
		return nil, err
	}
	if err := txRepo.ProgressRecord.SetCustomAssessmentReady(ctx, record.RecordID, assessment.AssessmentID); err != nil {
		txRollback(tx)
		s.logger.Error("更新进度记录评估就绪标记失败", zap.String("record_id", record.RecordID), zap.Error(err))
		return nil, err
	}
	if err := txRepo.ScheduleSlot.SetCustomAssessmentReady(ctx, record.SlotID, assessment.AssessmentID); err != nil {
		txRollback(tx)
		s.logger.Error("更新时段评估就绪标记失败", zap.String("slot_id", record.SlotID), zap.Error(err))
		return nil, err
	}
	if err := txCommit(tx); err != nil {
		return nil, err
	}

	s.logger.Info("教师自定义评估已就绪",
		zap.String("assessment_id", assessment.AssessmentID),
		zap.String("record_id", record.RecordID),
		zap.String("teacher_id", teacherID))
	return s.toAssessmentResponse(assessment), nil
}

// ────────────────────── Submit ──────────────────────

// Submit 记录评估提交结果；是否判定完成由学生完成动作或清扫任务决定
func (s *assessmentService) Submit(ctx context.Context, req *dto.SubmitAssessmentRequest, studentID string) (*dto.SubmissionResponse, error) {
	assessment, err := s.repo.CustomAssessment.GetByID(ctx, req.AssessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		s.logger.Error("查询评估失败", zap.String("assessment_id", req.AssessmentID), zap.Error(err))
		return nil, err
	}
	if assessment.StudentID != studentID {
		return nil, ErrAssessmentWrongStudent
	}

	submission := &model.AssessmentSubmission{
		StudentID:    studentID,
		AssessmentID: assessment.AssessmentID,
		Qualifying:   req.Qualifying,
		SubmittedAt:  time.Now(),
	}
	if err := s.repo.Submission.Create(ctx, submission); err != nil {
		s.logger.Error("记录评估提交失败", zap.Error(err))
		return nil, err
	}

	return &dto.SubmissionResponse{
		ID:           submission.SubmissionID,
		StudentID:    submission.StudentID,
		AssessmentID: submission.AssessmentID,
		Qualifying:   submission.Qualifying,
		SubmittedAt:  fmtTime(submission.SubmittedAt),
	}, nil
}

// ────────────────────── ListByStudent ──────────────────────

func (s *assessmentService) ListByStudent(ctx context.Context, studentID string) ([]dto.AssessmentResponse, error) {
	assessments, err := s.repo.CustomAssessment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询评估列表失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.AssessmentResponse, 0, len(assessments))
	for i := range assessments {
		result = append(result, *s.toAssessmentResponse(&assessments[i]))
	}
	return result, nil
}

func (s *assessmentService) toAssessmentResponse(a *model.CustomAssessment) *dto.AssessmentResponse {
	return &dto.AssessmentResponse{
		ID:        a.AssessmentID,
		TeacherID: a.TeacherID,
		StudentID: a.StudentID,
		RecordID:  a.RecordID,
		Title:     a.Title,
		ReadyAt:   fmtTime(a.ReadyAt),
		CreatedAt: fmtTime(a.CreatedAt),
	}
}
