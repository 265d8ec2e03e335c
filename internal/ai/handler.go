package ai

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bads1de/CareerRise/internal/shared/server/middleware"
	"github.com/bads1de/CareerRise/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai/summary", h.summary)
	rg.POST("/ai/work-experience", h.workExperience)
}

func (h *Handler) summary(c *gin.Context) {
	var in SummaryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	text, err := h.Svc.GenerateSummary(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"summary": text})
}

func (h *Handler) workExperience(c *gin.Context) {
	var in WorkExperienceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	exp, err := h.Svc.GenerateWorkExperience(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"workExperience": exp})
}
