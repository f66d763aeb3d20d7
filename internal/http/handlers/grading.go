package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-grading/internal/http/response"
	"github.com/yungbote/neurobridge-grading/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-grading/internal/services"
)

type GradingHandler struct {
	grading services.GradingService
}

func NewGradingHandler(grading services.GradingService) *GradingHandler {
	return &GradingHandler{grading: grading}
}

// bindOptional accepts an empty body as the zero request.
func bindOptional(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// POST /api/grading/submissions/:id
func (h *GradingHandler) GradeOne(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	var req services.GradeRequest
	if !bindOptional(c, &req) {
		return
	}
	ctx := c.Request.Context()
	res, err := h.grading.GradeOne(ctx, ctxutil.GetCaller(ctx), id, req)
	if err != nil {
		response.RespondErr(c, err, "grade_failed")
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// GET /api/grading/submissions/:id
func (h *GradingHandler) GetGrading(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	detail, err := h.grading.GetSubmissionGrading(ctx, ctxutil.GetCaller(ctx), id)
	if err != nil {
		response.RespondErr(c, err, "get_grading_failed")
		return
	}
	response.RespondOK(c, gin.H{"grading": detail})
}

// PUT /api/grading/submissions/:id/feedback
func (h *GradingHandler) ReviewFeedback(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	var req services.FeedbackReview
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ctx := c.Request.Context()
	detail, err := h.grading.ReviewFeedback(ctx, ctxutil.GetCaller(ctx), id, req)
	if err != nil {
		response.RespondErr(c, err, "review_feedback_failed")
		return
	}
	response.RespondOK(c, gin.H{"grading": detail})
}

type resubmitRequest struct {
	Content string `json:"content" binding:"required"`
}

// POST /api/submissions/:id/resubmit
func (h *GradingHandler) Resubmit(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_submission_id")
	if !ok {
		return
	}
	var req resubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ctx := c.Request.Context()
	sub, err := h.grading.Resubmit(ctx, ctxutil.GetCaller(ctx), id, req.Content)
	if err != nil {
		response.RespondErr(c, err, "resubmit_failed")
		return
	}
	response.RespondOK(c, gin.H{"submission": sub})
}

// POST /api/grading/assignments/:id/batch
func (h *GradingHandler) GradeBatch(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_assignment_id")
	if !ok {
		return
	}
	var req services.GradeRequest
	if !bindOptional(c, &req) {
		return
	}
	ctx := c.Request.Context()
	report, err := h.grading.GradeAssignmentBatch(ctx, ctxutil.GetCaller(ctx), id, req)
	if err != nil {
		response.RespondErr(c, err, "batch_failed")
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}

// GET /api/grading/assignments/:id/tiers?withActivities=true
func (h *GradingHandler) GetTiers(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_assignment_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tiers, err := h.grading.GetTiersForAssignment(ctx, ctxutil.GetCaller(ctx), id, queryBool(c, "withActivities"))
	if err != nil {
		response.RespondErr(c, err, "tiers_failed")
		return
	}
	response.RespondOK(c, gin.H{"tiers": tiers})
}

// GET /api/grading/assignments/:id/analytics
func (h *GradingHandler) GetAnalytics(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_assignment_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	analytics, err := h.grading.GetAssignmentAnalytics(ctx, ctxutil.GetCaller(ctx), id)
	if err != nil {
		response.RespondErr(c, err, "analytics_failed")
		return
	}
	response.RespondOK(c, gin.H{"analytics": analytics})
}
