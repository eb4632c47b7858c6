package dto

// ── 课表模块 DTO ──

// TimetableEntryRequest 新增/修改课表条目请求
type TimetableEntryRequest struct {
	DayOfWeek   string `json:"day_of_week"  binding:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	SubjectName string `json:"subject_name" binding:"required,min=1,max=100"`
	StartTime   string `json:"start_time"   binding:"required"`
	EndTime     string `json:"end_time"     binding:"required"`
}

// ReplaceTimetableRequest 整表替换请求
type ReplaceTimetableRequest struct {
	Entries []TimetableEntryRequest `json:"entries" binding:"required,dive"`
}

// ImportICSRequest ICS 日历导入请求
type ImportICSRequest struct {
	ICSContent string `json:"ics_content" binding:"required"`
}

// ── 响应 ──

// TimetableEntryResponse 课表条目响应
type TimetableEntryResponse struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	DayOfWeek   string `json:"day_of_week"`
	SubjectName string `json:"subject_name"`
	SubjectID   string `json:"subject_id,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Source      string `json:"source"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// TimetableResponse 学生完整课表响应
type TimetableResponse struct {
	StudentID string                   `json:"student_id"`
	Entries   []TimetableEntryResponse `json:"entries"`
	Conflicts []ConflictResponse       `json:"conflicts,omitempty"`
}

// ImportICSResponse ICS 导入结果响应
type ImportICSResponse struct {
	Imported  int                      `json:"imported"`
	Skipped   int                      `json:"skipped"`
	Warnings  []string                 `json:"warnings,omitempty"`
	Entries   []TimetableEntryResponse `json:"entries"`
	Conflicts []ConflictResponse       `json:"conflicts,omitempty"`
}
