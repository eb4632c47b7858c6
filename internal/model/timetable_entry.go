package model

// TimetableEntry 学生个人周课表条目 — 对应 timetable_entries
// DayOfWeek/时间以原始字符串入库：来源（文档采集或手工录入）不保证格式统一，
// 解析与校验由 ConflictDetector / ScheduleGenerator 在消费侧完成
type TimetableEntry struct {
	EntryID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	StudentID   string  `gorm:"type:uuid;not null;index"                       json:"student_id"`
	DayOfWeek   string  `gorm:"type:varchar(10);not null"                      json:"day_of_week"` // MONDAY … SUNDAY
	SubjectName string  `gorm:"type:varchar(100);not null"                     json:"subject_name"`
	SubjectID   *string `gorm:"type:uuid"                                      json:"subject_id,omitempty"` // 录入时按名称解析
	StartTime   string  `gorm:"type:varchar(10);not null"                      json:"start_time"`
	EndTime     string  `gorm:"type:varchar(10);not null"                      json:"end_time"`
	Source      string  `gorm:"type:varchar(20);not null;default:'manual'"     json:"source"` // manual | ics
	VersionedModel

	// 关联
	Student *User    `gorm:"foreignKey:StudentID;references:UserID"    json:"student,omitempty"`
	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
}

// TableName 指定表名
func (TimetableEntry) TableName() string { return "timetable_entries" }
