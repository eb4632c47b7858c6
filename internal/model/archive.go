package model

import "time"

// ── 归档表 ──
//
// 周重新生成前必须先归档再删除（保留历史分析数据，避免悬挂外键）。
// 归档行不回指在线表，字段为删除时刻的快照

// ScheduleSlotArchive 排课时段归档 — 对应 schedule_slot_archives
type ScheduleSlotArchive struct {
	ArchiveID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"archive_id"`
	SlotID       string    `gorm:"type:uuid;not null;index"                       json:"slot_id"`
	StudentID    string    `gorm:"type:uuid;not null;index"                       json:"student_id"`
	LessonDate   time.Time `gorm:"type:date;not null"                             json:"lesson_date"`
	PeriodNumber int       `gorm:"type:smallint;not null"                         json:"period_number"`
	TermID       string    `gorm:"type:uuid;not null"                             json:"term_id"`
	WeekNumber   int       `gorm:"type:smallint;not null"                         json:"week_number"`
	SubjectID    string    `gorm:"type:uuid;not null"                             json:"subject_id"`
	TopicID      *string   `gorm:"type:uuid"                                      json:"topic_id,omitempty"`
	Completed    bool      `gorm:"not null"                                       json:"completed"`
	Status       string    `gorm:"type:varchar(20);not null"                      json:"status"`
	Source       string    `gorm:"type:varchar(20);not null"                      json:"source"`
	ArchivedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"archived_at"`
}

// TableName 指定表名
func (ScheduleSlotArchive) TableName() string { return "schedule_slot_archives" }

// ProgressRecordArchive 进度台账归档 — 对应 progress_record_archives
type ProgressRecordArchive struct {
	ArchiveID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"archive_id"`
	RecordID         string     `gorm:"type:uuid;not null;index"                       json:"record_id"`
	StudentID        string     `gorm:"type:uuid;not null;index"                       json:"student_id"`
	LessonDate       time.Time  `gorm:"type:date;not null"                             json:"lesson_date"`
	PeriodNumber     int        `gorm:"type:smallint;not null"                         json:"period_number"`
	TermID           string     `gorm:"type:uuid;not null"                             json:"term_id"`
	SubjectID        string     `gorm:"type:uuid;not null"                             json:"subject_id"`
	Completed        bool       `gorm:"not null"                                       json:"completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	IncompleteReason *string    `gorm:"type:varchar(40)"                               json:"incomplete_reason,omitempty"`
	PeriodSequence   int        `gorm:"type:smallint;not null"                         json:"period_sequence"`
	ArchivedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"archived_at"`
}

// TableName 指定表名
func (ProgressRecordArchive) TableName() string { return "progress_record_archives" }
