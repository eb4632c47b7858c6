package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"paceclass/backend/internal/model"
	pkgerrors "paceclass/backend/pkg/errors"
)

// ProgressRecordRepository 进度台账数据访问接口
type ProgressRecordRepository interface {
	Create(ctx context.Context, record *model.ProgressRecord) error
	BatchCreate(ctx context.Context, records []model.ProgressRecord) error
	GetByID(ctx context.Context, id string) (*model.ProgressRecord, error)
	GetBySlot(ctx context.Context, slotID string) (*model.ProgressRecord, error)
	ListByStudentDateRange(ctx context.Context, studentID string, from, to time.Time) ([]model.ProgressRecord, error)
	ListByStudentTerm(ctx context.Context, studentID, termID string) ([]model.ProgressRecord, error)
	ListByTerm(ctx context.Context, termID string) ([]model.ProgressRecord, error)
	ListExpiredUnmarked(ctx context.Context, now time.Time, limit int) ([]model.ProgressRecord, error)
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	MarkIncomplete(ctx context.Context, id string, reason string, markedAt time.Time) error
	ClearIncomplete(ctx context.Context, id string, updatedBy string) error
	AttachTopic(ctx context.Context, id string, topicID string, updatedBy string) error
	SetCustomAssessmentReady(ctx context.Context, id string, assessmentID string) error
	ArchiveAndDeleteByStudentWeek(ctx context.Context, studentID, termID string, from, to time.Time) (int, error)
}

type progressRecordRepo struct {
	db *gorm.DB
}

// NewProgressRecordRepo 创建 ProgressRecordRepository 实例
func NewProgressRecordRepo(db *gorm.DB) ProgressRecordRepository {
	return &progressRecordRepo{db: db}
}

func (r *progressRecordRepo) Create(ctx context.Context, record *model.ProgressRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *progressRecordRepo) BatchCreate(ctx context.Context, records []model.ProgressRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *progressRecordRepo) GetByID(ctx context.Context, id string) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("record_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *progressRecordRepo) GetBySlot(ctx context.Context, slotID string) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("slot_id = ?", slotID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *progressRecordRepo) ListByStudentDateRange(ctx context.Context, studentID string, from, to time.Time) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("student_id = ? AND lesson_date >= ? AND lesson_date <= ?", studentID, from, to).
		Order("lesson_date ASC, period_number ASC").
		Find(&records).Error
	return records, err
}

func (r *progressRecordRepo) ListByStudentTerm(ctx context.Context, studentID, termID string) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("student_id = ? AND term_id = ?", studentID, termID).
		Order("lesson_date ASC, period_number ASC").
		Find(&records).Error
	return records, err
}

// ListByTerm 全校维度统计扫描：某学期全部进度记录
func (r *progressRecordRepo) ListByTerm(ctx context.Context, termID string) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("term_id = ?", termID).
		Order("student_id ASC, lesson_date ASC, period_number ASC").
		Find(&records).Error
	return records, err
}

// ListExpiredUnmarked 清扫任务扫描：截止时间已过、未完成且未标记的记录
// 截止时间取宽限期结束（无宽限期时取窗口结束）
func (r *progressRecordRepo) ListExpiredUnmarked(ctx context.Context, now time.Time, limit int) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("completed = ? AND incomplete_reason IS NULL", false).
		Where("COALESCE(grace_period_end, window_end) < ?", now).
		Order("window_end ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// MarkCompleted 条件更新：已完成或已标记未完成的记录不再转移
func (r *progressRecordRepo) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("record_id = ? AND completed = ? AND incomplete_reason IS NULL", id, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleState
	}
	return nil
}

// MarkIncomplete 条件更新：谓词与 MarkCompleted 相同，保证二者互斥且各自幂等
func (r *progressRecordRepo) MarkIncomplete(ctx context.Context, id string, reason string, markedAt time.Time) error {
	updates := map[string]interface{}{
		"incomplete_reason": reason,
	}
	if reason == model.IncompleteReasonMissedGrace {
		updates["auto_marked_incomplete_at"] = markedAt
	}
	result := r.db.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("record_id = ? AND completed = ? AND incomplete_reason IS NULL", id, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleState
	}
	return nil
}

// ClearIncomplete 教师撤销未完成标记，记录回到可完成状态
func (r *progressRecordRepo) ClearIncomplete(ctx context.Context, id string, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("record_id = ? AND incomplete_reason IS NOT NULL", id).
		Updates(map[string]interface{}{
			"incomplete_reason":         nil,
			"auto_marked_incomplete_at": nil,
			"updated_by":                updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleState
	}
	return nil
}

// AttachTopic 补挂课题（与时段侧 AttachTopic 在同一事务内调用）
func (r *progressRecordRepo) AttachTopic(ctx context.Context, id string, topicID string, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("record_id = ?", id).
		Updates(map[string]interface{}{
			"topic_id":   topicID,
			"updated_by": updatedBy,
		}).Error
}

// SetCustomAssessmentReady 自定义评估就绪标记
func (r *progressRecordRepo) SetCustomAssessmentReady(ctx context.Context, id string, assessmentID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("record_id = ?", id).
		Updates(map[string]interface{}{
			"custom_assessment_ready": true,
			"assessment_id":           assessmentID,
		}).Error
}

// ArchiveAndDeleteByStudentWeek 周重新生成时归档并删除该周日期范围内的台账记录
// 必须与时段归档在同一事务内执行
func (r *progressRecordRepo) ArchiveAndDeleteByStudentWeek(ctx context.Context, studentID, termID string, from, to time.Time) (int, error) {
	var records []model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND term_id = ? AND lesson_date >= ? AND lesson_date <= ?", studentID, termID, from, to).
		Find(&records).Error
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	archives := make([]model.ProgressRecordArchive, 0, len(records))
	for _, rec := range records {
		archives = append(archives, model.ProgressRecordArchive{
			RecordID:         rec.RecordID,
			StudentID:        rec.StudentID,
			LessonDate:       rec.LessonDate,
			PeriodNumber:     rec.PeriodNumber,
			TermID:           rec.TermID,
			SubjectID:        rec.SubjectID,
			Completed:        rec.Completed,
			CompletedAt:      rec.CompletedAt,
			IncompleteReason: rec.IncompleteReason,
			PeriodSequence:   rec.PeriodSequence,
		})
	}
	if err := r.db.WithContext(ctx).Create(&archives).Error; err != nil {
		return 0, err
	}

	err = r.db.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("student_id = ? AND term_id = ? AND lesson_date >= ? AND lesson_date <= ?", studentID, termID, from, to).
		Update("previous_record_id", nil).Error
	if err != nil {
		return 0, err
	}
	err = r.db.WithContext(ctx).
		Where("student_id = ? AND term_id = ? AND lesson_date >= ? AND lesson_date <= ?", studentID, termID, from, to).
		Delete(&model.ProgressRecord{}).Error
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
