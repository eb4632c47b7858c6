package repository

import (
	"context"

	"gorm.io/gorm"

	"paceclass/backend/internal/model"
)

// TimetableEntryRepository 课表条目数据访问接口
type TimetableEntryRepository interface {
	Create(ctx context.Context, entry *model.TimetableEntry) error
	BatchCreate(ctx context.Context, entries []model.TimetableEntry) error
	GetByID(ctx context.Context, id string) (*model.TimetableEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.TimetableEntry, error)
	Update(ctx context.Context, entry *model.TimetableEntry) error
	Delete(ctx context.Context, id string, deletedBy string) error
	DeleteByStudent(ctx context.Context, studentID string, deletedBy string) error
}

type timetableEntryRepo struct {
	db *gorm.DB
}

// NewTimetableEntryRepo 创建 TimetableEntryRepository 实例
func NewTimetableEntryRepo(db *gorm.DB) TimetableEntryRepository {
	return &timetableEntryRepo{db: db}
}

func (r *timetableEntryRepo) Create(ctx context.Context, entry *model.TimetableEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *timetableEntryRepo) BatchCreate(ctx context.Context, entries []model.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *timetableEntryRepo) GetByID(ctx context.Context, id string) (*model.TimetableEntry, error) {
	var entry model.TimetableEntry
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timetableEntryRepo) ListByStudent(ctx context.Context, studentID string) ([]model.TimetableEntry, error) {
	var entries []model.TimetableEntry
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("day_of_week ASC, start_time ASC").
		Find(&entries).Error
	return entries, err
}

func (r *timetableEntryRepo) Update(ctx context.Context, entry *model.TimetableEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *timetableEntryRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.TimetableEntry{}).
		Where("entry_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// DeleteByStudent 整表替换/ICS 导入时软删除学生的全部课表条目
func (r *timetableEntryRepo) DeleteByStudent(ctx context.Context, studentID string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.TimetableEntry{}).
		Where("student_id = ?", studentID).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
