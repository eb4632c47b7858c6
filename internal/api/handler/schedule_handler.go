package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/service"
	"paceclass/backend/pkg/response"
)

// ScheduleHandler 排课模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// GenerateWeek 按周生成学生个人课程安排
// POST /api/v1/students/:id/schedule/generate
func (h *ScheduleHandler) GenerateWeek(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	var req dto.GenerateWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.GenerateWeek(c.Request.Context(), studentID, &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, result)
}

// GetWeek 查询学生某周课程安排
// GET /api/v1/students/:id/schedule?term_id=&week_number=
func (h *ScheduleHandler) GetWeek(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	termID := c.Query("term_id")
	if termID == "" {
		response.BadRequest(c, 10001, "term_id 不能为空")
		return
	}
	weekNumber, err := strconv.Atoi(c.Query("week_number"))
	if err != nil || weekNumber < 1 {
		response.BadRequest(c, 10001, "week_number 无效")
		return
	}

	week, err := h.scheduleSvc.GetWeek(c.Request.Context(), studentID, termID, weekNumber)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, week)
}

// ListByDateRange 按日期范围查询课程安排
// GET /api/v1/students/:id/schedule/range?date_from=&date_to=
func (h *ScheduleHandler) ListByDateRange(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	dateFrom := c.Query("date_from")
	dateTo := c.Query("date_to")
	if dateFrom == "" || dateTo == "" {
		response.BadRequest(c, 10001, "date_from 与 date_to 不能为空")
		return
	}

	slots, err := h.scheduleSvc.ListByDateRange(c.Request.Context(), studentID, dateFrom, dateTo)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": slots})
}

// CreateClassSlot 为一批学生创建班级统一课
// POST /api/v1/class-slots
func (h *ScheduleHandler) CreateClassSlot(c *gin.Context) {
	var req dto.CreateClassSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slots, err := h.scheduleSvc.CreateClassSlot(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, gin.H{"list": slots})
}

// handleScheduleError 统一处理排课模块业务错误
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTermNotFound):
		response.NotFound(c, 16001, "学期不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 16002, "学生不存在")
	case errors.Is(err, service.ErrTimetableEmpty):
		response.BadRequest(c, 16003, "学生课表为空，无法生成课程安排")
	case errors.Is(err, service.ErrClassSlotTopicRequired):
		response.BadRequest(c, 16004, "班级统一课必须同时指定科目与课题")
	case errors.Is(err, service.ErrDateNotInWeek):
		response.BadRequest(c, 16005, "日期不在指定周次范围内")
	case errors.Is(err, service.ErrClassSlotTimeInvalid):
		response.BadRequest(c, 16006, "班级统一课时间范围无效")
	case errors.Is(err, service.ErrWeekOutOfRange):
		response.BadRequest(c, 16007, "周次超出学期范围")
	case errors.Is(err, service.ErrTopicNotFound):
		response.NotFound(c, 16008, "课题不存在")
	case errors.Is(err, service.ErrTopicSubjectMismatch):
		response.BadRequest(c, 16009, "课题与科目不一致")
	default:
		response.InternalError(c)
	}
}
