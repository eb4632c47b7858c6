package dto

// ── 进度模块 DTO ──

// ClearIncompleteRequest 教师撤销未完成标记请求
type ClearIncompleteRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=500"`
}

// AttachTopicRequest 为缺失课题的安排补挂课题请求
type AttachTopicRequest struct {
	SlotID  string `json:"slot_id"  binding:"required,uuid"`
	TopicID string `json:"topic_id" binding:"required,uuid"`
}

// ProgressListRequest 进度记录列表查询参数
type ProgressListRequest struct {
	TermID   string `form:"term_id"   binding:"omitempty,uuid"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// ── 响应 ──

// ProgressRecordResponse 进度记录响应
type ProgressRecordResponse struct {
	ID                       string        `json:"id"`
	StudentID                string        `json:"student_id"`
	SlotID                   string        `json:"slot_id"`
	TermID                   string        `json:"term_id"`
	LessonDate               string        `json:"lesson_date"`
	PeriodNumber             int           `json:"period_number"`
	Subject                  *SubjectBrief `json:"subject,omitempty"`
	Topic                    *TopicBrief   `json:"topic,omitempty"`
	WindowStart              string        `json:"window_start"`
	WindowEnd                string        `json:"window_end"`
	GracePeriodEnd           string        `json:"grace_period_end,omitempty"`
	Completed                bool          `json:"completed"`
	CompletedAt              string        `json:"completed_at,omitempty"`
	IncompleteReason         string        `json:"incomplete_reason,omitempty"`
	AutoMarkedIncompleteAt   string        `json:"auto_marked_incomplete_at,omitempty"`
	PeriodSequence           int           `json:"period_sequence"`
	TotalPeriodsInSequence   int           `json:"total_periods_in_sequence"`
	PreviousRecordID         string        `json:"previous_record_id,omitempty"`
	RequiresCustomAssessment bool          `json:"requires_custom_assessment"`
	CustomAssessmentReady    bool          `json:"custom_assessment_ready"`
	AccessState              string        `json:"access_state,omitempty"`
}

// AccessStateResponse 单条进度记录的访问状态响应
type AccessStateResponse struct {
	RecordID    string `json:"record_id"`
	AccessState string `json:"access_state"` // COMPLETED | BLOCKED_PREREQUISITE | BLOCKED_PENDING_ASSESSMENT | UPCOMING | AVAILABLE_NOW | MISSED
	EvaluatedAt string `json:"evaluated_at"`
}
