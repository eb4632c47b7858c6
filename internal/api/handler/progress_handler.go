package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/service"
	"paceclass/backend/pkg/response"
)

// ProgressHandler 进度台账模块 HTTP 处理器
type ProgressHandler struct {
	progressSvc service.ProgressService
}

// NewProgressHandler 创建 ProgressHandler
func NewProgressHandler(progressSvc service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressSvc: progressSvc}
}

// ListProgress 查询学生进度记录（按学期或日期范围）
// GET /api/v1/students/:id/progress
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	var req dto.ProgressListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	records, err := h.progressSvc.ListForStudent(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// GetAccessState 查询单条进度记录的访问状态
// GET /api/v1/progress/:id/access
func (h *ProgressHandler) GetAccessState(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		response.BadRequest(c, 10001, "记录ID不能为空")
		return
	}

	state, err := h.progressSvc.GetAccessState(c.Request.Context(), recordID)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, state)
}

// MarkComplete 学生标记课时完成
// POST /api/v1/progress/:id/complete
func (h *ProgressHandler) MarkComplete(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		response.BadRequest(c, 10001, "记录ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	record, err := h.progressSvc.MarkComplete(c.Request.Context(), recordID, callerID)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, record)
}

// MarkIncomplete 学生自标未完成
// POST /api/v1/progress/:id/incomplete
func (h *ProgressHandler) MarkIncomplete(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		response.BadRequest(c, 10001, "记录ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	record, err := h.progressSvc.MarkIncomplete(c.Request.Context(), recordID, callerID)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, record)
}

// ClearIncomplete 教师撤销未完成标记
// POST /api/v1/progress/:id/clear-incomplete
func (h *ProgressHandler) ClearIncomplete(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		response.BadRequest(c, 10001, "记录ID不能为空")
		return
	}

	var req dto.ClearIncompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.progressSvc.ClearIncomplete(c.Request.Context(), recordID, &req, callerID); err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, nil)
}

// AttachTopic 为缺失课题的课程安排补挂课题
// POST /api/v1/slots/attach-topic
func (h *ProgressHandler) AttachTopic(c *gin.Context) {
	var req dto.AttachTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.progressSvc.AttachTopic(c.Request.Context(), &req, callerID); err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleProgressError 统一处理进度模块业务错误
func (h *ProgressHandler) handleProgressError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProgressRecordNotFound):
		response.NotFound(c, 17001, "进度记录不存在")
	case errors.Is(err, service.ErrSlotNotFound):
		response.NotFound(c, 17002, "课程安排不存在")
	case errors.Is(err, service.ErrTopicNotFound):
		response.NotFound(c, 17003, "课题不存在")
	case errors.Is(err, service.ErrBlockedPrerequisite):
		response.Conflict(c, 17004, "前置课时未完成，当前课时不可访问")
	case errors.Is(err, service.ErrBlockedPendingAssessment):
		response.Conflict(c, 17005, "教师测评尚未就绪，当前课时不可访问")
	case errors.Is(err, service.ErrMarkedIncomplete):
		response.Conflict(c, 17006, "该课时已标记未完成，不再接受完成提交")
	case errors.Is(err, service.ErrCompletedRecord):
		response.Conflict(c, 17007, "该课时已完成，不能标记未完成")
	case errors.Is(err, service.ErrNotMarkedIncomplete):
		response.BadRequest(c, 17008, "该课时未处于未完成标记状态")
	case errors.Is(err, service.ErrNotOwnRecord):
		response.Forbidden(c, 17009, "只能操作本人的进度记录")
	case errors.Is(err, service.ErrTopicSubjectMismatch):
		response.BadRequest(c, 17010, "课题与时段科目不一致")
	case errors.Is(err, service.ErrTopicNotMissing):
		response.BadRequest(c, 17011, "该时段无需补挂课题")
	default:
		response.InternalError(c)
	}
}
