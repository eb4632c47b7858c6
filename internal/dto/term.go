package dto

// ── 学期模块 DTO ──

// CreateTermRequest 创建学期请求
type CreateTermRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   binding:"required,datetime=2006-01-02"`
	WeekCount int    `json:"week_count" binding:"required,min=1,max=52"`
}

// UpdateTermRequest 修改学期请求
type UpdateTermRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=100"`
	StartDate *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	WeekCount *int    `json:"week_count" binding:"omitempty,min=1,max=52"`
}

// ── 响应 ──

// TermResponse 学期响应
type TermResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	WeekCount int    `json:"week_count"`
	IsActive  bool   `json:"is_active"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// WeekRangeResponse 周次日期范围响应
type WeekRangeResponse struct {
	WeekNumber int    `json:"week_number"`
	StartDate  string `json:"start_date"` // 周一
	EndDate    string `json:"end_date"`   // 周日
}
