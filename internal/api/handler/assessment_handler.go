package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"paceclass/backend/internal/dto"
	"paceclass/backend/internal/service"
	"paceclass/backend/pkg/response"
)

// AssessmentHandler 自定义评估模块 HTTP 处理器
type AssessmentHandler struct {
	assessmentSvc service.AssessmentService
}

// NewAssessmentHandler 创建 AssessmentHandler
func NewAssessmentHandler(assessmentSvc service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentSvc: assessmentSvc}
}

// CreateAssessment 教师为学生创建自定义评估
// POST /api/v1/assessments
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var req dto.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	assessment, err := h.assessmentSvc.Create(c.Request.Context(), &req, teacherID)
	if err != nil {
		h.handleAssessmentError(c, err)
		return
	}

	response.Created(c, assessment)
}

// SubmitAssessment 学生提交评估结果
// POST /api/v1/assessments/submit
func (h *AssessmentHandler) SubmitAssessment(c *gin.Context) {
	var req dto.SubmitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	submission, err := h.assessmentSvc.Submit(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleAssessmentError(c, err)
		return
	}

	response.Created(c, submission)
}

// ListAssessments 查询学生的自定义评估列表
// GET /api/v1/students/:id/assessments
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学生ID不能为空")
		return
	}
	if !mustAccessStudent(c, studentID) {
		return
	}

	assessments, err := h.assessmentSvc.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		h.handleAssessmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": assessments})
}

// handleAssessmentError 统一处理评估模块业务错误
func (h *AssessmentHandler) handleAssessmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		response.NotFound(c, 18001, "评估不存在")
	case errors.Is(err, service.ErrProgressRecordNotFound):
		response.NotFound(c, 18002, "进度记录不存在")
	case errors.Is(err, service.ErrAssessmentNotRequired):
		response.BadRequest(c, 18003, "该课时不要求自定义评估")
	case errors.Is(err, service.ErrAssessmentAlreadyReady):
		response.Conflict(c, 18004, "该课时评估已就绪")
	case errors.Is(err, service.ErrAssessmentWrongStudent):
		response.BadRequest(c, 18005, "评估目标学生与进度记录不一致")
	default:
		response.InternalError(c)
	}
}
