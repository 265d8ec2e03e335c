package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrPermission      = errors.New("permission denied")
	ErrTransient       = errors.New("transient io failure")
	ErrGeneration      = errors.New("generation failed")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the per-field reasons a payload was rejected.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError for one field.
func Invalid(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// PermissionError is returned when the caller's tier does not allow an action.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	if e == nil || e.Reason == "" {
		return ErrPermission.Error()
	}
	return ErrPermission.Error() + ": " + e.Reason
}

func (e *PermissionError) Is(target error) bool { return target == ErrPermission }

// Denied builds a PermissionError.
func Denied(reason string) error {
	return &PermissionError{Reason: reason}
}

type transientError struct {
	op  string
	err error
}

func (e *transientError) Error() string {
	if e.err == nil {
		return e.op + ": " + ErrTransient.Error()
	}
	return e.op + ": " + e.err.Error()
}

func (e *transientError) Is(target error) bool { return target == ErrTransient }

func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as a retryable network/storage/billing failure.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &transientError{op: op, err: err}
}

// NotFound wraps ErrNotFound with a subject, e.g. NotFound("resume").
func NotFound(subject string) error {
	return fmt.Errorf("%s %w", subject, ErrNotFound)
}

// Status maps an error onto an HTTP status and a stable response code.
func Status(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrGeneration):
		return http.StatusBadGateway, "generation_failed"
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
