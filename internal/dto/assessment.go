package dto

// ── 自定义评估 DTO ──

// CreateAssessmentRequest 教师为学生创建自定义评估请求
type CreateAssessmentRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	RecordID  string `json:"record_id"  binding:"required,uuid"`
	Title     string `json:"title"      binding:"required,min=2,max=200"`
}

// SubmitAssessmentRequest 学生提交评估结果请求
type SubmitAssessmentRequest struct {
	AssessmentID string `json:"assessment_id" binding:"required,uuid"`
	Qualifying   bool   `json:"qualifying"`
}

// ── 响应 ──

// AssessmentResponse 自定义评估响应
type AssessmentResponse struct {
	ID        string `json:"id"`
	TeacherID string `json:"teacher_id"`
	StudentID string `json:"student_id"`
	RecordID  string `json:"record_id"`
	Title     string `json:"title"`
	ReadyAt   string `json:"ready_at"`
	CreatedAt string `json:"created_at"`
}

// SubmissionResponse 评估提交响应
type SubmissionResponse struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	AssessmentID string `json:"assessment_id"`
	Qualifying   bool   `json:"qualifying"`
	SubmittedAt  string `json:"submitted_at"`
}
