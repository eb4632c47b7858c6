package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/model"
	"paceclass/backend/internal/service"
	"paceclass/backend/pkg/response"
)

// TimetableHandler 周课表模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
	conflictSvc  service.ConflictService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService, conflictSvc service.ConflictService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc, conflictSvc: conflictSvc}
}

// mustAccessStudent 学生只能操作本人数据；教师/管理员不受限。
// 校验失败时写入 403 响应并返回 false。
func mustAccessStudent(c *gin.Context, studentID string) bool {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return false
	}
	if role == model.RoleStudent && callerID != studentID {
		response.Forbidden(c, 10003, "只能访问本人数据")
		return false
	}
	return true
}

// GetTimetable 获取学生完整周课表（含冲突报告）
// GET /api/v1/students/:id/timetable
func (h *TimetableHandler) GetTimetable(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	timetable, err := h.timetableSvc.Get(c.Request.Context(), studentID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, timetable)
}

// CreateEntry 新增课表条目
// POST /api/v1/students/:id/timetable/entries
func (h *TimetableHandler) CreateEntry(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	var req dto.TimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entry, err := h.timetableSvc.CreateEntry(c.Request.Context(), studentID, &req, callerID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.Created(c, entry)
}

// UpdateEntry 修改课表条目
// PUT /api/v1/timetable-entries/:id
func (h *TimetableHandler) UpdateEntry(c *gin.Context) {
	entryID := c.Param("id")
	if entryID == "" {
		response.BadRequest(c, 10001, "条目ID不能为空")
		return
	}

	var req dto.TimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entry, err := h.timetableSvc.UpdateEntry(c.Request.Context(), entryID, &req, callerID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, entry)
}

// DeleteEntry 删除课表条目
// DELETE /api/v1/timetable-entries/:id
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	entryID := c.Param("id")
	if entryID == "" {
		response.BadRequest(c, 10001, "条目ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.timetableSvc.DeleteEntry(c.Request.Context(), entryID, callerID); err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, nil)
}

// ReplaceTimetable 整表替换课表
// PUT /api/v1/students/:id/timetable
func (h *TimetableHandler) ReplaceTimetable(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	var req dto.ReplaceTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	timetable, err := h.timetableSvc.Replace(c.Request.Context(), studentID, &req, callerID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, timetable)
}

// ImportICS 从 iCalendar 内容导入课表（整表替换语义）
// POST /api/v1/students/:id/timetable/import-ics
func (h *TimetableHandler) ImportICS(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	var req dto.ImportICSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.timetableSvc.ImportICS(c.Request.Context(), studentID, &req, callerID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

// GetConflictReport 获取学生课表冲突报告
// GET /api/v1/students/:id/timetable/conflicts
func (h *TimetableHandler) GetConflictReport(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	report, err := h.conflictSvc.ReportForStudent(c.Request.Context(), studentID)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, report)
}

// handleTimetableError 统一处理课表模块业务错误
func (h *TimetableHandler) handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimetableEntryNotFound):
		response.NotFound(c, 15001, "课表条目不存在")
	case errors.Is(err, service.ErrConflictStudentNotFound):
		response.NotFound(c, 15002, "学生不存在")
	case errors.Is(err, service.ErrICSNoEntries):
		response.BadRequest(c, 15003, "ICS 中没有可导入的课程事件")
	case errors.Is(err, service.ErrUnparseableTime):
		response.BadRequest(c, 15004, "无法解析的时间格式")
	default:
		response.InternalError(c)
	}
}
