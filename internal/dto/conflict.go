package dto

// ── 冲突检测 DTO ──

// ConflictResponse 单条冲突响应
type ConflictResponse struct {
	Type        string   `json:"type"`        // TIME_OVERLAP | DUPLICATE_SUBJECT | INVALID_TIME_RANGE | UNREALISTIC_DURATION | TOO_MANY_PERIODS
	Severity    string   `json:"severity"`    // HIGH | MEDIUM | LOW
	DayOfWeek   string   `json:"day_of_week"`
	Description string   `json:"description"`
	EntryIDs    []string `json:"entry_ids,omitempty"` // 涉及的课表条目
}

// ConflictReportResponse 课表冲突检测报告
type ConflictReportResponse struct {
	StudentID string             `json:"student_id"`
	HasBlocking bool             `json:"has_blocking"` // 存在 HIGH 级冲突
	Conflicts []ConflictResponse `json:"conflicts"`
}
