package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bads1de/CareerRise/internal/shared/apperr"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// Context keys read when logging an error response.
const (
	RequestIDKey = "requestId"
	UserIDKey    = "userId"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString(RequestIDKey),
	}
	if userID := c.GetString(UserIDKey); userID != "" {
		fields["user_id"] = userID
	}
	if cause := c.GetString("errorCause"); cause != "" {
		fields["cause"] = cause
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError maps a domain error onto the standardized error response.
func FromError(c *gin.Context, err error) {
	status, code := apperr.Status(err)
	message := err.Error()
	var details interface{}

	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		message = apperr.ErrValidation.Error()
		details = verr.Fields
	}
	if status == http.StatusInternalServerError {
		c.Set("errorCause", err.Error())
		message = "Unexpected server error"
	}
	Error(c, status, code, message, details)
}
