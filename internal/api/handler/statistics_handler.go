package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/service"
	"paceclass/backend/pkg/response"
)

// StatisticsHandler 统计模块 HTTP 处理器
type StatisticsHandler struct {
	statsSvc service.StatisticsService
}

// NewStatisticsHandler 创建 StatisticsHandler
func NewStatisticsHandler(statsSvc service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statsSvc: statsSvc}
}

// GetStudentStats 查询学生学期统计
// GET /api/v1/statistics/students/:id?term_id=&date_from=&date_to=
func (h *StatisticsHandler) GetStudentStats(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	var req dto.StatisticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	stats, err := h.statsSvc.StudentStats(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleStatisticsError(c, err)
		return
	}

	response.OK(c, stats)
}

// GetClassStats 查询班级学期统计
// GET /api/v1/statistics/classes/:id?term_id=&date_from=&date_to=
func (h *StatisticsHandler) GetClassStats(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级ID不能为空")
		return
	}

	var req dto.StatisticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	stats, err := h.statsSvc.ClassStats(c.Request.Context(), classID, &req)
	if err != nil {
		h.handleStatisticsError(c, err)
		return
	}

	response.OK(c, stats)
}

// GetSystemStats 查询全校学期统计
// GET /api/v1/statistics/system?term_id=&date_from=&date_to=
func (h *StatisticsHandler) GetSystemStats(c *gin.Context) {
	var req dto.StatisticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	stats, err := h.statsSvc.SystemStats(c.Request.Context(), &req)
	if err != nil {
		h.handleStatisticsError(c, err)
		return
	}

	response.OK(c, stats)
}

// handleStatisticsError 统一处理统计模块业务错误
func (h *StatisticsHandler) handleStatisticsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStatsTermNotFound):
		response.NotFound(c, 19001, "学期不存在")
	case errors.Is(err, service.ErrStatsClassNotFound):
		response.NotFound(c, 19002, "班级不存在")
	case errors.Is(err, service.ErrStatsInvalidDateRange):
		response.BadRequest(c, 19003, "统计日期范围无效")
	default:
		response.InternalError(c)
	}
}
