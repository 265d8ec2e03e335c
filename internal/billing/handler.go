package billing

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
	rg.GET("/billing", h.summary)
	rg.POST("/billing/checkout", h.checkout)
	rg.POST("/billing/portal", h.portal)
}

type checkoutRequest struct {
	PriceID string `json:"priceId" binding:"required"`
}

type redirectResponse struct {
	URL string `json:"url"`
}

func (h *Handler) summary(c *gin.Context) {
	out, err := h.Svc.Summary(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "priceId is required", nil)
		return
	}
	url, err := h.Svc.Checkout(c.Request.Context(), middleware.UserIDFromContext(c), req.PriceID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, redirectResponse{URL: url})
}

func (h *Handler) portal(c *gin.Context) {
	url, err := h.Svc.Portal(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, redirectResponse{URL: url})
}
