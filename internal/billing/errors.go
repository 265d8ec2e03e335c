package billing

import (
	"errors"
	"fmt"

	"github.com/bads1de/CareerRise/internal/shared/apperr"
)

var (
	ErrNotFound = fmt.Errorf("subscription %w", apperr.ErrNotFound)

	// ErrUnknownPrice means a stored subscription references a price that maps to no plan.
	ErrUnknownPrice = errors.New("unknown subscription price")

	// ErrMissingUserID means an event payload carries no metadata.userId.
	ErrMissingUserID = errors.New("user id missing in event metadata")

	// ErrNotConfigured is returned by billing calls when Stripe keys are absent.
	ErrNotConfigured = fmt.Errorf("billing not configured: %w", apperr.ErrTransient)
)
