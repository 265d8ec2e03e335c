package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/bads1de/CareerRise/internal/shared/metrics"
	"github.com/bads1de/CareerRise/internal/shared/server/respond"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// maxWebhookBody caps the payload read from Stripe. Events with expanded
// line items run well past 64 KiB.
const maxWebhookBody = 1 << 20

// WebhookHandler verifies and dispatches Stripe webhook deliveries.
type WebhookHandler struct {
	Svc    *Service
	Secret string
}

func NewWebhookHandler(svc *Service, secret string) *WebhookHandler {
	return &WebhookHandler{Svc: svc, Secret: secret}
}

func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/stripe-webhook", h.handle)
}

func (h *WebhookHandler) handle(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook body exceeds limit", gin.H{"limitBytes": tooLarge.Limit})
			return
		}
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "failed to read request body", nil)
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing Stripe-Signature header", nil)
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, h.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		telemetry.Warn("billing.webhook_signature_invalid", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid signature", nil)
		return
	}

	eventType := string(event.Type)
	c.Set("webhookEvent", eventType)

	if err := h.Svc.HandleEvent(c.Request.Context(), event); err != nil {
		metrics.IncWebhookEvent(eventType, "failed")
		telemetry.Error("billing.webhook_failed", map[string]any{"event_id": event.ID, "event_type": eventType, "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "webhook handling failed", nil)
		return
	}

	metrics.IncWebhookEvent(eventType, "processed")
	respond.OK(c, gin.H{"received": true})
}
