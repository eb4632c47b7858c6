package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"paceclass/backend/internal/service"
	"paceclass/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// exportWeekParams 解析导出接口公共参数
func exportWeekParams(c *gin.Context) (studentID, termID string, weekNumber int, ok bool) {
	studentID = c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return "", "", 0, false
	}
	if !mustAccessStudent(c, studentID) {
		return "", "", 0, false
	}

	termID = c.Query("term_id")
	if termID == "" {
		response.BadRequest(c, 10001, "term_id 不能为空")
		return "", "", 0, false
	}
	weekNumber, err := strconv.Atoi(c.Query("week_number"))
	if err != nil || weekNumber < 1 {
		response.BadRequest(c, 10001, "week_number 无效")
		return "", "", 0, false
	}
	return studentID, termID, weekNumber, true
}

// ExportWeekXLSX 导出某周课程安排为 Excel
// GET /api/v1/students/:id/schedule/export/xlsx?term_id=&week_number=
func (h *ExportHandler) ExportWeekXLSX(c *gin.Context) {
	studentID, termID, weekNumber, ok := exportWeekParams(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportWeekXLSX(c.Request.Context(), studentID, termID, weekNumber)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", contentTypeXLSX)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// ExportWeekICS 导出某周课程安排为 iCalendar
// GET /api/v1/students/:id/schedule/export/ics?term_id=&week_number=
func (h *ExportHandler) ExportWeekICS(c *gin.Context) {
	studentID, termID, weekNumber, ok := exportWeekParams(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportWeekICS(c.Request.Context(), studentID, termID, weekNumber)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", contentTypeICS)
	c.Data(http.StatusOK, contentTypeICS, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTermNotFound):
		response.NotFound(c, 20001, "学期不存在")
	case errors.Is(err, service.ErrExportNoSlots):
		response.NotFound(c, 20002, "该周暂无课程安排")
	case errors.Is(err, service.ErrWeekOutOfRange):
		response.BadRequest(c, 20003, "周次超出学期范围")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
