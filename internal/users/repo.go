package users

import (
	"context"
	"fmt"

	"github.com/bads1de/CareerRise/internal/shared/apperr"
)

var ErrNotFound = fmt.Errorf("user %w", apperr.ErrNotFound)

type Repo interface {
	// Upsert stores profile fields; the billing customer id is left untouched.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
}
