package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-grading/internal/http/response"
	"github.com/yungbote/neurobridge-grading/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-grading/internal/services"
)

type MasteryHandler struct {
	mastery services.MasteryService
}

func NewMasteryHandler(mastery services.MasteryService) *MasteryHandler {
	return &MasteryHandler{mastery: mastery}
}

// GET /api/mastery/students/:id
func (h *MasteryHandler) GetStudentMastery(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_student_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	view, err := h.mastery.GetMasteryForStudent(ctx, ctxutil.GetCaller(ctx), id)
	if err != nil {
		response.RespondErr(c, err, "mastery_failed")
		return
	}
	response.RespondOK(c, gin.H{"mastery": view})
}

// GET /api/mastery/classes/:id/gaps?withRecommendations=true
func (h *MasteryHandler) GetClassGaps(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_class_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	gaps, err := h.mastery.GetGapsForClass(ctx, ctxutil.GetCaller(ctx), id, queryBool(c, "withRecommendations"))
	if err != nil {
		response.RespondErr(c, err, "gaps_failed")
		return
	}
	response.RespondOK(c, gin.H{"gaps": gaps})
}

// GET /api/mastery/classes/:id?standardId=
func (h *MasteryHandler) GetClassMastery(c *gin.Context) {
	id, ok := pathUUID(c, "id", "invalid_class_id")
	if !ok {
		return
	}
	standardID, ok := queryUUID(c, "standardId", "invalid_standard_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	matrix, err := h.mastery.GetMasteryForClass(ctx, ctxutil.GetCaller(ctx), id, standardID)
	if err != nil {
		response.RespondErr(c, err, "class_mastery_failed")
		return
	}
	response.RespondOK(c, gin.H{"mastery": matrix})
}
