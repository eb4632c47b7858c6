package repository

import (
	"context"

	"gorm.io/gorm"

	"paceclass/backend/internal/model"
)

// CustomAssessmentRepository 自定义评估数据访问接口
type CustomAssessmentRepository interface {
	Create(ctx context.Context, assessment *model.CustomAssessment) error
	GetByID(ctx context.Context, id string) (*model.CustomAssessment, error)
	GetByRecord(ctx context.Context, recordID string) (*model.CustomAssessment, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.CustomAssessment, error)
}

// SubmissionRepository 评估提交数据访问接口
type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.AssessmentSubmission) error
	HasQualifying(ctx context.Context, studentID, assessmentID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.AssessmentSubmission, error)
}

// ── CustomAssessment Repository 实现 ──

type customAssessmentRepo struct {
	db *gorm.DB
}

// NewCustomAssessmentRepo 创建 CustomAssessmentRepository 实例
func NewCustomAssessmentRepo(db *gorm.DB) CustomAssessmentRepository {
	return &customAssessmentRepo{db: db}
}

func (r *customAssessmentRepo) Create(ctx context.Context, assessment *model.CustomAssessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r *customAssessmentRepo) GetByID(ctx context.Context, id string) (*model.CustomAssessment, error) {
	var assessment model.CustomAssessment
	err := r.db.WithContext(ctx).
		Where("assessment_id = ?", id).
		First(&assessment).Error
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *customAssessmentRepo) GetByRecord(ctx context.Context, recordID string) (*model.CustomAssessment, error) {
	var assessment model.CustomAssessment
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at DESC").
		First(&assessment).Error
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *customAssessmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.CustomAssessment, error) {
	var assessments []model.CustomAssessment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&assessments).Error
	return assessments, err
}

// ── Submission Repository 实现 ──

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, submission *model.AssessmentSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// HasQualifying 学生在该评估下是否存在合格提交（清扫任务据此判定完成）
func (r *submissionRepo) HasQualifying(ctx context.Context, studentID, assessmentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AssessmentSubmission{}).
		Where("student_id = ? AND assessment_id = ? AND qualifying = ?", studentID, assessmentID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *submissionRepo) ListByStudent(ctx context.Context, studentID string) ([]model.AssessmentSubmission, error) {
	var submissions []model.AssessmentSubmission
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	return submissions, err
}
