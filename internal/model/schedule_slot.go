package model

import "time"

// ── 枚举值 ──

// ScheduleSlot.Source 取值
const (
	SlotSourceClass      = "class"      // 班级统一排课：subject + topic 必填
	SlotSourceIndividual = "individual" // 个性化生成：topic 可缺失（降级态）
)

// ScheduleSlot.Status 取值
const (
	SlotStatusReady      = "ready"
	SlotStatusInProgress = "in_progress"
	SlotStatusCompleted  = "completed"
)

// ScheduleSlot.LessonAssignmentMethod 取值
const (
	AssignmentMethodAuto          = "auto"
	AssignmentMethodPendingManual = "pending_manual" // 课题缺失，等待教师手工指派
)

// ScheduleSlot 排课时段表 — 对应 schedule_slots
// 唯一键：(student_id, lesson_date, period_number)
type ScheduleSlot struct {
	SlotID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                        json:"slot_id"`
	StudentID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_slot_student_date_period,priority:1" json:"student_id"`
	LessonDate   time.Time `gorm:"type:date;not null;uniqueIndex:uq_slot_student_date_period,priority:2" json:"lesson_date"`
	PeriodNumber int       `gorm:"type:smallint;not null;uniqueIndex:uq_slot_student_date_period,priority:3" json:"period_number"`

	TermID    string  `gorm:"type:uuid;not null;index" json:"term_id"`
	WeekNumber int    `gorm:"type:smallint;not null"   json:"week_number"`
	SubjectID string  `gorm:"type:uuid;not null"       json:"subject_id"`
	TopicID   *string `gorm:"type:uuid"                json:"topic_id,omitempty"`
	// AssessmentID 关联测评（教师自定义测评或学科统一测评），由测评子系统提供
	AssessmentID *string `gorm:"type:uuid" json:"assessment_id,omitempty"`

	LessonStart       time.Time  `gorm:"not null" json:"lesson_start"`
	LessonEnd         time.Time  `gorm:"not null" json:"lesson_end"`
	AssessWindowStart time.Time  `gorm:"not null" json:"assess_window_start"`
	AssessWindowEnd   time.Time  `gorm:"not null" json:"assess_window_end"`
	GracePeriodEnd    *time.Time `json:"grace_period_end,omitempty"`

	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Source                 string `gorm:"type:varchar(20);not null"                  json:"source"` // class | individual
	Status                 string `gorm:"type:varchar(20);not null;default:'ready'"  json:"status"` // ready | in_progress | completed
	MissingTopic           bool   `gorm:"not null;default:false"                     json:"missing_topic"`
	LessonAssignmentMethod string `gorm:"type:varchar(20);not null;default:'auto'"   json:"lesson_assignment_method"` // auto | pending_manual

	// 多课时课题链：后续课时指向前一课时（仅指向时间上更早的时段，构造上无环）
	PreviousSlotID *string `gorm:"type:uuid" json:"previous_slot_id,omitempty"`

	RequiresCustomAssessment bool `gorm:"not null;default:false" json:"requires_custom_assessment"`
	CustomAssessmentReady    bool `gorm:"not null;default:false" json:"custom_assessment_ready"`

	// MarkedIncompleteReason 清扫任务回写（镜像 ProgressRecord.IncompleteReason）
	MarkedIncompleteReason *string `gorm:"type:varchar(40)" json:"marked_incomplete_reason,omitempty"`

	VersionedModel

	// 关联
	Subject      *Subject      `gorm:"foreignKey:SubjectID;references:SubjectID"  json:"subject,omitempty"`
	Topic        *Topic        `gorm:"foreignKey:TopicID;references:TopicID"      json:"topic,omitempty"`
	PreviousSlot *ScheduleSlot `gorm:"foreignKey:PreviousSlotID;references:SlotID" json:"previous_slot,omitempty"`
}

// TableName 指定表名
func (ScheduleSlot) TableName() string { return "schedule_slots" }
