package model

import "time"

// CustomAssessment 教师自定义课时测评 — 对应 custom_assessments
// 多课时课题的第 2 个及以后课时在教师为该学生编写测评前保持锁定
type CustomAssessment struct {
	AssessmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assessment_id"`
	TeacherID    string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	StudentID    string    `gorm:"type:uuid;not null;index"                       json:"student_id"`
	RecordID     string    `gorm:"type:uuid;not null;index"                       json:"record_id"`
	Title        string    `gorm:"type:varchar(200);not null"                     json:"title"`
	ReadyAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"ready_at"`
	VersionedModel

	// 关联
	Teacher *User           `gorm:"foreignKey:TeacherID;references:UserID"   json:"teacher,omitempty"`
	Student *User           `gorm:"foreignKey:StudentID;references:UserID"   json:"student,omitempty"`
	Record  *ProgressRecord `gorm:"foreignKey:RecordID;references:RecordID"  json:"record,omitempty"`
}

// TableName 指定表名
func (CustomAssessment) TableName() string { return "custom_assessments" }

// AssessmentSubmission 测评提交镜像 — 对应 assessment_submissions
// 提交子系统的边界镜像：本服务仅读取"是否存在合格提交"
type AssessmentSubmission struct {
	SubmissionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	StudentID    string    `gorm:"type:uuid;not null;index"                       json:"student_id"`
	AssessmentID string    `gorm:"type:uuid;not null;index"                       json:"assessment_id"`
	Qualifying   bool      `gorm:"not null;default:false"                         json:"qualifying"`
	SubmittedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"submitted_at"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AssessmentSubmission) TableName() string { return "assessment_submissions" }
