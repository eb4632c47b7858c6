package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"paceclass/backend/internal/model"
	pkgerrors "paceclass/backend/pkg/errors"
)

// ScheduleSlotRepository 排课时段数据访问接口
type ScheduleSlotRepository interface {
	Create(ctx context.Context, slot *model.ScheduleSlot) error
	BatchCreate(ctx context.Context, slots []model.ScheduleSlot) error
	GetByID(ctx context.Context, id string) (*model.ScheduleSlot, error)
	ListByStudentWeek(ctx context.Context, studentID, termID string, weekNumber int) ([]model.ScheduleSlot, error)
	ListByStudentDateRange(ctx context.Context, studentID string, from, to time.Time) ([]model.ScheduleSlot, error)
	Update(ctx context.Context, slot *model.ScheduleSlot) error
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	MarkIncomplete(ctx context.Context, id string, reason string) error
	ClearIncomplete(ctx context.Context, id string, updatedBy string) error
	AttachTopic(ctx context.Context, id string, topicID string, updatedBy string) error
	SetCustomAssessmentReady(ctx context.Context, id string, assessmentID string) error
	ArchiveAndDeleteByStudentWeek(ctx context.Context, studentID, termID string, weekNumber int) (int, error)
}

type scheduleSlotRepo struct {
	db *gorm.DB
}

// NewScheduleSlotRepo 创建 ScheduleSlotRepository 实例
func NewScheduleSlotRepo(db *gorm.DB) ScheduleSlotRepository {
	return &scheduleSlotRepo{db: db}
}

func (r *scheduleSlotRepo) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *scheduleSlotRepo) BatchCreate(ctx context.Context, slots []model.ScheduleSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

func (r *scheduleSlotRepo) GetByID(ctx context.Context, id string) (*model.ScheduleSlot, error) {
	var slot model.ScheduleSlot
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Topic").
		Where("slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *scheduleSlotRepo) ListByStudentWeek(ctx context.Context, studentID, termID string, weekNumber int) ([]model.ScheduleSlot, error) {
	var slots []model.ScheduleSlot
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Topic").
		Where("student_id = ? AND term_id = ? AND week_number = ?", studentID, termID, weekNumber).
		Order("lesson_date ASC, period_number ASC").
		Find(&slots).Error
	return slots, err
}

func (r *scheduleSlotRepo) ListByStudentDateRange(ctx context.Context, studentID string, from, to time.Time) ([]model.ScheduleSlot, error) {
	var slots []model.ScheduleSlot
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Topic").
		Where("student_id = ? AND lesson_date >= ? AND lesson_date <= ?", studentID, from, to).
		Order("lesson_date ASC, period_number ASC").
		Find(&slots).Error
	return slots, err
}

func (r *scheduleSlotRepo) Update(ctx context.Context, slot *model.ScheduleSlot) error {
	oldVersion := slot.Version
	result := r.db.WithContext(ctx).
		Model(slot).
		Where("slot_id = ? AND version = ?", slot.SlotID, oldVersion).
		Updates(map[string]interface{}{
			"topic_id":                 slot.TopicID,
			"assessment_id":            slot.AssessmentID,
			"status":                   slot.Status,
			"missing_topic":            slot.MissingTopic,
			"lesson_assignment_method": slot.LessonAssignmentMethod,
			"custom_assessment_ready":  slot.CustomAssessmentReady,
			"updated_by":               slot.UpdatedBy,
			"version":                  oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	slot.Version = oldVersion + 1
	return nil
}

// MarkCompleted 条件更新：仅未完成的时段可转移为完成
func (r *scheduleSlotRepo) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("slot_id = ? AND completed = ? AND marked_incomplete_reason IS NULL", id, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": completedAt,
			"status":       model.SlotStatusCompleted,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleState
	}
	return nil
}

// MarkIncomplete 条件更新：仅未完成且未标记的时段可写入未完成原因
func (r *scheduleSlotRepo) MarkIncomplete(ctx context.Context, id string, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("slot_id = ? AND completed = ? AND marked_incomplete_reason IS NULL", id, false).
		Updates(map[string]interface{}{
			"marked_incomplete_reason": reason,
			"version":                  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleState
	}
	return nil
}

// ClearIncomplete 教师撤销未完成标记
func (r *scheduleSlotRepo) ClearIncomplete(ctx context.Context, id string, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("slot_id = ? AND marked_incomplete_reason IS NOT NULL", id).
		Updates(map[string]interface{}{
			"marked_incomplete_reason": nil,
			"updated_by":               updatedBy,
			"version":                  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleState
	}
	return nil
}

// AttachTopic 为课题缺失的降级时段补挂课题
func (r *scheduleSlotRepo) AttachTopic(ctx context.Context, id string, topicID string, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("slot_id = ? AND missing_topic = ?", id, true).
		Updates(map[string]interface{}{
			"topic_id":                 topicID,
			"missing_topic":            false,
			"status":                   model.SlotStatusReady,
			"lesson_assignment_method": model.AssignmentMethodAuto,
			"updated_by":               updatedBy,
			"version":                  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleState
	}
	return nil
}

// SetCustomAssessmentReady 自定义评估就绪后解除该时段的评估阻塞
func (r *scheduleSlotRepo) SetCustomAssessmentReady(ctx context.Context, id string, assessmentID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("slot_id = ?", id).
		Updates(map[string]interface{}{
			"custom_assessment_ready": true,
			"assessment_id":           assessmentID,
			"version":                 gorm.Expr("version + 1"),
		}).Error
}

// ArchiveAndDeleteByStudentWeek 先归档再硬删除某学生某周的全部时段
// 必须在事务内调用（由 Repository.WithTx 提供事务绑定）
func (r *scheduleSlotRepo) ArchiveAndDeleteByStudentWeek(ctx context.Context, studentID, termID string, weekNumber int) (int, error) {
	var slots []model.ScheduleSlot
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND term_id = ? AND week_number = ?", studentID, termID, weekNumber).
		Find(&slots).Error
	if err != nil {
		return 0, err
	}
	if len(slots) == 0 {
		return 0, nil
	}

	archives := make([]model.ScheduleSlotArchive, 0, len(slots))
	for _, s := range slots {
		archives = append(archives, model.ScheduleSlotArchive{
			SlotID:       s.SlotID,
			StudentID:    s.StudentID,
			LessonDate:   s.LessonDate,
			PeriodNumber: s.PeriodNumber,
			TermID:       s.TermID,
			WeekNumber:   s.WeekNumber,
			SubjectID:    s.SubjectID,
			TopicID:      s.TopicID,
			Completed:    s.Completed,
			Status:       s.Status,
			Source:       s.Source,
		})
	}
	if err := r.db.WithContext(ctx).Create(&archives).Error; err != nil {
		return 0, err
	}

	// 先断开链内自引用外键，再硬删除
	err = r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("student_id = ? AND term_id = ? AND week_number = ?", studentID, termID, weekNumber).
		Update("previous_slot_id", nil).Error
	if err != nil {
		return 0, err
	}
	err = r.db.WithContext(ctx).
		Unscoped().
		Where("student_id = ? AND term_id = ? AND week_number = ?", studentID, termID, weekNumber).
		Delete(&model.ScheduleSlot{}).Error
	if err != nil {
		return 0, err
	}
	return len(slots), nil
}
