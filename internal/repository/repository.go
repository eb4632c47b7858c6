package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User             UserRepository
	Class            ClassRepository
	Subject          SubjectRepository
	Topic            TopicRepository
	Term             TermRepository
	TimetableEntry   TimetableEntryRepository
	ScheduleSlot     ScheduleSlotRepository
	ProgressRecord   ProgressRecordRepository
	CustomAssessment CustomAssessmentRepository
	Submission       SubmissionRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		User:             NewUserRepo(db),
		Class:            NewClassRepo(db),
		Subject:          NewSubjectRepo(db),
		Topic:            NewTopicRepo(db),
		Term:             NewTermRepo(db),
		TimetableEntry:   NewTimetableEntryRepo(db),
		ScheduleSlot:     NewScheduleSlotRepo(db),
		ProgressRecord:   NewProgressRecordRepo(db),
		CustomAssessment: NewCustomAssessmentRepo(db),
		Submission:       NewSubmissionRepo(db),
	}
}

// BeginTx 开启事务，返回事务内的 *gorm.DB
// 聚合未绑定数据库连接时（mock 注入）返回 nil 事务，调用方需判 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到指定事务的 Repository 聚合
// 周生成等跨表操作在同一事务内通过它访问各 Repository
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
