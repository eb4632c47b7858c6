package model

// Subject 学科表 — 对应 subjects
type Subject struct {
	SubjectID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Name      string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	VersionedModel
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }

// Topic 课题表 — 对应 topics
// 由内容管理方按学科/周次发布；PeriodsRequired > 1 的课题跨多个课时
type Topic struct {
	TopicID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"topic_id"`
	SubjectID       string `gorm:"type:uuid;not null;index"                       json:"subject_id"`
	Title           string `gorm:"type:varchar(200);not null"                     json:"title"`
	WeekNumber      int    `gorm:"type:smallint;not null"                         json:"week_number"`
	PeriodsRequired int    `gorm:"type:smallint;not null;default:1"               json:"periods_required"`
	VersionedModel

	// 关联
	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
}

// TableName 指定表名
func (Topic) TableName() string { return "topics" }
