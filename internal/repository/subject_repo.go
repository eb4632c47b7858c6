package repository

import (
	"context"

	"gorm.io/gorm"

	"paceclass/backend/internal/model"
)

// SubjectRepository 科目数据访问接口
type SubjectRepository interface {
	Create(ctx context.Context, subject *model.Subject) error
	GetByID(ctx context.Context, id string) (*model.Subject, error)
	GetByName(ctx context.Context, name string) (*model.Subject, error)
	List(ctx context.Context) ([]model.Subject, error)
}

// TopicRepository 课题数据访问接口
type TopicRepository interface {
	Create(ctx context.Context, topic *model.Topic) error
	GetByID(ctx context.Context, id string) (*model.Topic, error)
	ListBySubjectAndWeek(ctx context.Context, subjectID string, weekNumber int) ([]model.Topic, error)
	ListBySubject(ctx context.Context, subjectID string) ([]model.Topic, error)
}

// ── Subject Repository 实现 ──

type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo 创建 SubjectRepository 实例
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) Create(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", id).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) GetByName(ctx context.Context, name string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) List(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&subjects).Error
	return subjects, err
}

// ── Topic Repository 实现 ──

type topicRepo struct {
	db *gorm.DB
}

// NewTopicRepo 创建 TopicRepository 实例
func NewTopicRepo(db *gorm.DB) TopicRepository {
	return &topicRepo{db: db}
}

func (r *topicRepo) Create(ctx context.Context, topic *model.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *topicRepo) GetByID(ctx context.Context, id string) (*model.Topic, error) {
	var topic model.Topic
	err := r.db.WithContext(ctx).
		Where("topic_id = ?", id).
		First(&topic).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// ListBySubjectAndWeek 按创建顺序返回某科目某周的课题，周生成按此顺序消耗课时
func (r *topicRepo) ListBySubjectAndWeek(ctx context.Context, subjectID string, weekNumber int) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND week_number = ?", subjectID, weekNumber).
		Order("created_at ASC").
		Find(&topics).Error
	return topics, err
}

func (r *topicRepo) ListBySubject(ctx context.Context, subjectID string) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("week_number ASC, created_at ASC").
		Find(&topics).Error
	return topics, err
}
