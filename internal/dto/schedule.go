package dto

// ── 排课模块 DTO ──

// GenerateWeekRequest 按周生成个人课程安排请求
type GenerateWeekRequest struct {
	TermID     string `json:"term_id"     binding:"required,uuid"`
	WeekNumber int    `json:"week_number" binding:"required,min=1,max=52"`
}

// CreateClassSlotRequest 创建班级统一课请求
type CreateClassSlotRequest struct {
	TermID       string   `json:"term_id"       binding:"required,uuid"`
	WeekNumber   int      `json:"week_number"   binding:"required,min=1,max=52"`
	SubjectID    string   `json:"subject_id"    binding:"required,uuid"`
	TopicID      *string  `json:"topic_id"      binding:"omitempty,uuid"`
	LessonDate   string   `json:"lesson_date"   binding:"required,datetime=2006-01-02"`
	PeriodNumber int      `json:"period_number" binding:"required,min=1"`
	StartTime    string   `json:"start_time"    binding:"required"`
	EndTime      string   `json:"end_time"      binding:"required"`
	StudentIDs   []string `json:"student_ids"   binding:"required,min=1,dive,uuid"`
}

// SlotListRequest 课程安排列表查询参数
type SlotListRequest struct {
	TermID     string `form:"term_id"     binding:"omitempty,uuid"`
	WeekNumber int    `form:"week_number" binding:"omitempty,min=1,max=52"`
	DateFrom   string `form:"date_from"   binding:"omitempty,datetime=2006-01-02"`
	DateTo     string `form:"date_to"     binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// ── 响应 ──

// ScheduleSlotResponse 课程安排响应
type ScheduleSlotResponse struct {
	ID                       string        `json:"id"`
	StudentID                string        `json:"student_id"`
	TermID                   string        `json:"term_id"`
	WeekNumber               int           `json:"week_number"`
	LessonDate               string        `json:"lesson_date"`
	PeriodNumber             int           `json:"period_number"`
	Subject                  *SubjectBrief `json:"subject,omitempty"`
	Topic                    *TopicBrief   `json:"topic,omitempty"`
	LessonStart              string        `json:"lesson_start"`
	LessonEnd                string        `json:"lesson_end"`
	AssessWindowStart        string        `json:"assess_window_start"`
	AssessWindowEnd          string        `json:"assess_window_end"`
	GracePeriodEnd           string        `json:"grace_period_end,omitempty"`
	Completed                bool          `json:"completed"`
	CompletedAt              string        `json:"completed_at,omitempty"`
	Source                   string        `json:"source"`
	Status                   string        `json:"status"`
	AccessState              string        `json:"access_state,omitempty"`
	MissingTopic             bool          `json:"missing_topic"`
	LessonAssignmentMethod   string        `json:"lesson_assignment_method"`
	PreviousSlotID           string        `json:"previous_slot_id,omitempty"`
	RequiresCustomAssessment bool          `json:"requires_custom_assessment"`
	CustomAssessmentReady    bool          `json:"custom_assessment_ready"`
	MarkedIncompleteReason   string        `json:"marked_incomplete_reason,omitempty"`
}

// GenerateWeekResponse 按周生成结果响应
type GenerateWeekResponse struct {
	StudentID     string                 `json:"student_id"`
	TermID        string                 `json:"term_id"`
	WeekNumber    int                    `json:"week_number"`
	GeneratedSlots int                   `json:"generated_slots"`
	ArchivedSlots int                    `json:"archived_slots"`
	MissingTopics int                    `json:"missing_topics"`
	Warnings      []string               `json:"warnings,omitempty"`
	Slots         []ScheduleSlotResponse `json:"slots"`
}

// WeekScheduleResponse 某周完整课程安排响应
type WeekScheduleResponse struct {
	StudentID  string                 `json:"student_id"`
	TermID     string                 `json:"term_id"`
	WeekNumber int                    `json:"week_number"`
	Slots      []ScheduleSlotResponse `json:"slots"`
}
