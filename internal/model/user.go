package model

// 用户角色
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User 用户表 — 对应 users
// 认证由统一认证服务负责，本服务只消费已签发的身份
type User struct {
	UserID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	StudentNo string `gorm:"type:varchar(20)"                               json:"student_no"`
	Role      string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"` // student | teacher | admin
	ClassID   *string `gorm:"type:uuid"                                     json:"class_id,omitempty"`
	VersionedModel

	// 关联
	Class *Class `gorm:"foreignKey:ClassID;references:ClassID" json:"class,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// Class 班级表 — 对应 classes（统计聚合的分组维度）
type Class struct {
	ClassID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	Name    string `gorm:"type:varchar(100);not null"                     json:"name"`
	VersionedModel
}

// TableName 指定表名
func (Class) TableName() string { return "classes" }
