package model

import "time"

// ProgressRecord.IncompleteReason 取值
const (
	IncompleteReasonMissedGrace   = "MISSED_GRACE_PERIOD" // 清扫任务：宽限期结束仍未完成
	IncompleteReasonStudentMarked = "STUDENT_MARKED"      // 学生主动标记未完成
)

// ProgressRecord 学习进度台账 — 对应 progress_records
// 与 ScheduleSlot 一一镜像，唯一键同为 (student_id, lesson_date, period_number)。
// 窗口时间为独立副本：重算后允许与时段上的值分叉
type ProgressRecord struct {
	RecordID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                          json:"record_id"`
	StudentID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_record_student_date_period,priority:1" json:"student_id"`
	LessonDate   time.Time `gorm:"type:date;not null;uniqueIndex:uq_record_student_date_period,priority:2" json:"lesson_date"`
	PeriodNumber int       `gorm:"type:smallint;not null;uniqueIndex:uq_record_student_date_period,priority:3" json:"period_number"`

	SlotID       string  `gorm:"type:uuid;not null;index" json:"slot_id"`
	TermID       string  `gorm:"type:uuid;not null;index" json:"term_id"`
	SubjectID    string  `gorm:"type:uuid;not null"       json:"subject_id"`
	TopicID      *string `gorm:"type:uuid"                json:"topic_id,omitempty"`
	AssessmentID *string `gorm:"type:uuid"                json:"assessment_id,omitempty"`

	WindowStart    time.Time  `gorm:"not null" json:"window_start"`
	WindowEnd      time.Time  `gorm:"not null" json:"window_end"`
	GracePeriodEnd *time.Time `json:"grace_period_end,omitempty"`

	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// IncompleteReason 仅在 completed = false 且窗口已失效时填写；
	// 与 completed = true 互斥（清扫任务的条件更新保证该不变量）
	IncompleteReason       *string    `gorm:"type:varchar(40)" json:"incomplete_reason,omitempty"`
	AutoMarkedIncompleteAt *time.Time `json:"auto_marked_incomplete_at,omitempty"`

	// 多课时课题链：period_sequence 自 1 起单调递增，仅指向时间上更早的记录
	PeriodSequence         int     `gorm:"type:smallint;not null;default:1" json:"period_sequence"`
	TotalPeriodsInSequence int     `gorm:"type:smallint;not null;default:1" json:"total_periods_in_sequence"`
	PreviousRecordID       *string `gorm:"type:uuid"                        json:"previous_record_id,omitempty"`

	RequiresCustomAssessment bool `gorm:"not null;default:false" json:"requires_custom_assessment"`
	CustomAssessmentReady    bool `gorm:"not null;default:false" json:"custom_assessment_ready"`

	BaseModel

	// 关联
	Student        *User           `gorm:"foreignKey:StudentID;references:UserID"          json:"student,omitempty"`
	Subject        *Subject        `gorm:"foreignKey:SubjectID;references:SubjectID"       json:"subject,omitempty"`
	Slot           *ScheduleSlot   `gorm:"foreignKey:SlotID;references:SlotID"             json:"slot,omitempty"`
	PreviousRecord *ProgressRecord `gorm:"foreignKey:PreviousRecordID;references:RecordID" json:"previous_record,omitempty"`
}

// TableName 指定表名
func (ProgressRecord) TableName() string { return "progress_records" }

// WindowDeadline 提交截止时间：有宽限期时取宽限期结束，否则取窗口结束
func (r *ProgressRecord) WindowDeadline() time.Time {
	if r.GracePeriodEnd != nil {
		return *r.GracePeriodEnd
	}
	return r.WindowEnd
}
