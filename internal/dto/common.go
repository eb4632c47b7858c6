package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 学生/科目简要信息 ──

// StudentBrief 学生简要信息
type StudentBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StudentNo string `json:"student_no,omitempty"`
}

// SubjectBrief 科目简要信息
type SubjectBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TopicBrief 课题简要信息
type TopicBrief struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	WeekNumber      int    `json:"week_number"`
	PeriodsRequired int    `json:"periods_required"`
}
