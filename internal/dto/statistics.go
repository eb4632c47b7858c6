package dto

// ── 统计模块 DTO ──

// StatisticsRequest 统计查询参数
type StatisticsRequest struct {
	TermID   string `form:"term_id"   binding:"required,uuid"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   binding:"omitempty,datetime=2006-01-02"`
}

// SubjectStatResponse 科目维度统计
type SubjectStatResponse struct {
	Subject        SubjectBrief `json:"subject"`
	TotalRecords   int          `json:"total_records"`
	CompletedCount int          `json:"completed_count"`
	MissedCount    int          `json:"missed_count"`
	CompletionRate float64      `json:"completion_rate"` // 0–1，两位小数
}

// StudentStatResponse 学生维度统计
type StudentStatResponse struct {
	StudentID      string                `json:"student_id"`
	TermID         string                `json:"term_id"`
	TotalRecords   int                   `json:"total_records"`
	CompletedCount int                   `json:"completed_count"`
	MissedCount    int                   `json:"missed_count"`
	PendingCount   int                   `json:"pending_count"`
	CompletionRate float64               `json:"completion_rate"`
	MissRate       float64               `json:"miss_rate"`
	OnTrack        bool                  `json:"on_track"` // 完成率 ≥ 75%
	AtRisk         bool                  `json:"at_risk"`  // 缺课率 > 20%
	Subjects       []SubjectStatResponse `json:"subjects"`
	CachedAt       string                `json:"cached_at,omitempty"`
}

// SystemStatResponse 全校维度统计
type SystemStatResponse struct {
	TermID         string                `json:"term_id"`
	StudentCount   int                   `json:"student_count"`
	TotalRecords   int                   `json:"total_records"`
	CompletedCount int                   `json:"completed_count"`
	MissedCount    int                   `json:"missed_count"`
	PendingCount   int                   `json:"pending_count"`
	CompletionRate float64               `json:"completion_rate"`
	MissRate       float64               `json:"miss_rate"`
	OnTrackCount   int                   `json:"on_track_count"`
	AtRiskCount    int                   `json:"at_risk_count"`
	Subjects       []SubjectStatResponse `json:"subjects"`
	CachedAt       string                `json:"cached_at,omitempty"`
}

// ClassStatResponse 班级维度统计
type ClassStatResponse struct {
	ClassID        string                `json:"class_id"`
	TermID         string                `json:"term_id"`
	StudentCount   int                   `json:"student_count"`
	OnTrackCount   int                   `json:"on_track_count"`
	AtRiskCount    int                   `json:"at_risk_count"`
	CompletionRate float64               `json:"completion_rate"` // 全班平均
	Students       []StudentStatResponse `json:"students"`
	CachedAt       string                `json:"cached_at,omitempty"`
}
