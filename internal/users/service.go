package users

import (
	"context"
	"errors"
	"strings"

	"github.com/bads1de/CareerRise/internal/shared/apperr"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the identity returned by the OAuth provider.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return apperr.Invalid("user", "id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, apperr.ErrUnauthenticated
	}
	return s.Repo.GetByID(ctx, userID)
}

// SetStripeCustomerID links the user to a billing customer.
func (s *Service) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(customerID) == "" {
		return apperr.Invalid("stripeCustomerId", "user id and customer id are required")
	}
	return s.Repo.SetStripeCustomerID(ctx, userID, customerID)
}
