package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"

	"github.com/bads1de/CareerRise/internal/permissions"
	"github.com/bads1de/CareerRise/internal/shared/apperr"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
	"github.com/bads1de/CareerRise/internal/users"
)

// UserDirectory is the part of the user store billing reads and writes.
type UserDirectory interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
}

type Service struct {
	Repo    Repo
	Gateway Gateway
	Users   UserDirectory
	Plans   Plans
	// BaseURL is the public web app origin used for checkout and portal redirects.
	BaseURL string
	Now     func() time.Time
}

func NewService(repo Repo, gateway Gateway, directory UserDirectory, plans Plans, baseURL string) *Service {
	return &Service{
		Repo:    repo,
		Gateway: gateway,
		Users:   directory,
		Plans:   plans,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Now:     time.Now,
	}
}

// TierFor resolves the caller's tier from the local subscription record.
// A missing record or a period that already ended means free.
func (s *Service) TierFor(ctx context.Context, userID string) (permissions.Tier, error) {
	sub, err := s.Repo.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return permissions.Free, nil
	}
	if err != nil {
		return permissions.Free, apperr.Transient("subscription lookup", err)
	}
	if !sub.CurrentPeriodEnd.After(s.now()) {
		return permissions.Free, nil
	}
	return s.Plans.TierForPrice(sub.StripePriceID)
}

// Summary is what the billing page shows.
type Summary struct {
	Tier              permissions.Tier `json:"tier"`
	PriceID           string           `json:"priceId,omitempty"`
	ProductName       string           `json:"productName,omitempty"`
	CurrentPeriodEnd  *time.Time       `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool             `json:"cancelAtPeriodEnd"`
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	tier, err := s.TierFor(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{Tier: tier}
	if tier == permissions.Free {
		return out, nil
	}
	sub, err := s.Repo.GetByUser(ctx, userID)
	if err != nil {
		return Summary{}, apperr.Transient("subscription lookup", err)
	}
	end := sub.CurrentPeriodEnd
	out.PriceID = sub.StripePriceID
	out.CurrentPeriodEnd = &end
	out.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if s.Gateway != nil {
		name, err := s.Gateway.ProductName(ctx, sub.StripePriceID)
		if err != nil {
			telemetry.Warn("billing.product_lookup_failed", map[string]any{"user_id": userID, "price_id": sub.StripePriceID, "error": err.Error()})
		}
		out.ProductName = name
	}
	return out, nil
}

// Checkout starts a subscription checkout and returns the hosted page URL.
func (s *Service) Checkout(ctx context.Context, userID, priceID string) (string, error) {
	if s.Gateway == nil {
		return "", ErrNotConfigured
	}
	priceID = strings.TrimSpace(priceID)
	if !s.Plans.Known(priceID) {
		return "", apperr.Invalid("priceId", "must be one of the offered plans")
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	customerID := s.customerID(ctx, user)
	if customerID == "" && user.Email == "" {
		return "", apperr.Invalid("email", "an email address is required for checkout")
	}
	return s.Gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		UserID:     userID,
		PriceID:    priceID,
		CustomerID: customerID,
		Email:      user.Email,
		SuccessURL: s.BaseURL + "/billing/success",
		CancelURL:  s.BaseURL + "/billing",
	})
}

// Portal opens the billing self-service portal for a known customer.
func (s *Service) Portal(ctx context.Context, userID string) (string, error) {
	if s.Gateway == nil {
		return "", ErrNotConfigured
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	customerID := s.customerID(ctx, user)
	if customerID == "" {
		return "", apperr.NotFound("billing customer")
	}
	return s.Gateway.CreatePortalSession(ctx, customerID, s.BaseURL+"/billing")
}

func (s *Service) customerID(ctx context.Context, user users.User) string {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID
	}
	if sub, err := s.Repo.GetByUser(ctx, user.ID); err == nil {
		return sub.StripeCustomerID
	}
	return ""
}

// HandleEvent applies one webhook event to the local state. Every branch sets
// absolute state so redelivered events are harmless.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	if event.Data == nil {
		return fmt.Errorf("event %s has no data", event.ID)
	}
	switch string(event.Type) {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return s.linkCustomer(ctx, &sess)

	case EventSubscriptionCreated, EventSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		if s.Gateway == nil {
			return ErrNotConfigured
		}
		full, err := s.Gateway.GetSubscription(ctx, sub.ID)
		if err != nil {
			return err
		}
		return s.apply(ctx, full, "")

	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.removeCustomer(ctx, customerOf(&sub))

	default:
		telemetry.Info("billing.event_ignored", map[string]any{"event_id": event.ID, "event_type": string(event.Type)})
		return nil
	}
}

func (s *Service) linkCustomer(ctx context.Context, sess *stripe.CheckoutSession) error {
	userID := sess.Metadata[metadataUserID]
	if userID == "" {
		return ErrMissingUserID
	}
	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	if customerID == "" {
		telemetry.Warn("billing.checkout_without_customer", map[string]any{"user_id": userID, "session_id": sess.ID})
		return nil
	}
	err := s.Users.SetStripeCustomerID(ctx, userID, customerID)
	if errors.Is(err, apperr.ErrNotFound) {
		telemetry.Warn("billing.checkout_unknown_user", map[string]any{"user_id": userID, "customer_id": customerID})
		return nil
	}
	if err != nil {
		return err
	}
	telemetry.Info("billing.customer_linked", map[string]any{"user_id": userID, "customer_id": customerID})
	return nil
}

// apply mirrors a subscription fetched from Stripe. fallbackUserID is used when
// the subscription carries no owner metadata.
func (s *Service) apply(ctx context.Context, sub *stripe.Subscription, fallbackUserID string) error {
	if sub == nil {
		return errors.New("nil subscription")
	}
	customerID := customerOf(sub)
	if !liveStatus(sub.Status) {
		return s.removeCustomer(ctx, customerID)
	}

	userID := sub.Metadata[metadataUserID]
	if userID == "" {
		userID = fallbackUserID
	}
	if userID == "" {
		return ErrMissingUserID
	}
	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}
	if !s.Plans.Known(priceID) {
		telemetry.Warn("billing.unknown_price", map[string]any{"user_id": userID, "price_id": priceID})
	}

	_, err := s.Repo.UpsertByUser(ctx, Subscription{
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        priceID,
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	})
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	telemetry.Info("billing.subscription_synced", map[string]any{
		"user_id":         userID,
		"subscription_id": sub.ID,
		"status":          string(sub.Status),
		"price_id":        priceID,
	})
	return nil
}

func (s *Service) removeCustomer(ctx context.Context, customerID string) error {
	if customerID == "" {
		telemetry.Warn("billing.delete_without_customer", nil)
		return nil
	}
	owners, err := s.Repo.DeleteByCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("delete subscriptions: %w", err)
	}
	telemetry.Info("billing.subscription_removed", map[string]any{"customer_id": customerID, "removed": len(owners)})
	return nil
}

// Reconcile refreshes every local subscription whose period has ended and
// returns how many were processed.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	if s.Gateway == nil {
		return 0, ErrNotConfigured
	}
	expired, err := s.Repo.ListExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	var errs []error
	for _, local := range expired {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		remote, err := s.Gateway.GetSubscription(ctx, local.StripeSubscriptionID)
		if isResourceMissing(err) {
			err = s.removeCustomer(ctx, local.StripeCustomerID)
		} else if err == nil {
			err = s.apply(ctx, remote, local.UserID)
		}
		if err != nil {
			telemetry.Warn("billing.reconcile_failed", map[string]any{"user_id": local.UserID, "subscription_id": local.StripeSubscriptionID, "error": err.Error()})
			errs = append(errs, err)
		}
	}
	return len(expired), errors.Join(errs...)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func customerOf(sub *stripe.Subscription) string {
	if sub == nil || sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing
}
