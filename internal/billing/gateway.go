package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/bads1de/CareerRise/internal/shared/apperr"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// Gateway is the subset of the Stripe API the billing service needs.
type Gateway interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ProductName(ctx context.Context, priceID string) (string, error)
}

// CheckoutRequest describes a subscription checkout for one user.
type CheckoutRequest struct {
	UserID     string
	PriceID    string
	CustomerID string
	Email      string
	SuccessURL string
	CancelURL  string
}

// errorTypeAPIConnection is reported by stripe-go when the API could not be reached.
const errorTypeAPIConnection stripe.ErrorType = "api_connection_error"

// StripeGateway calls Stripe through stripe-go, retrying transient failures.
type StripeGateway struct {
	api            *client.API
	maxInterval    time.Duration
	maxElapsedTime time.Duration
}

func NewStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{
		api:            api,
		maxInterval:    15 * time.Second,
		maxElapsedTime: time.Minute,
	}
}

func (g *StripeGateway) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	var sub *stripe.Subscription
	err := g.retry(ctx, "subscription.get", func() error {
		params := &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}}
		var err error
		sub, err = g.api.Subscriptions.Get(id, params)
		return err
	})
	return sub, err
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: map[string]string{metadataUserID: req.UserID},
		},
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataUserID: req.UserID},
		},
		ConsentCollection: &stripe.CheckoutSessionConsentCollectionParams{
			TermsOfService: stripe.String(string(stripe.CheckoutSessionConsentCollectionTermsOfServiceRequired)),
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else {
		params.CustomerEmail = stripe.String(req.Email)
	}

	var url string
	err := g.retry(ctx, "checkout.create", func() error {
		sess, err := g.api.CheckoutSessions.New(params)
		if err != nil {
			return err
		}
		url = sess.URL
		return nil
	})
	return url, err
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	var url string
	err := g.retry(ctx, "portal.create", func() error {
		sess, err := g.api.BillingPortalSessions.New(params)
		if err != nil {
			return err
		}
		url = sess.URL
		return nil
	})
	return url, err
}

func (g *StripeGateway) ProductName(ctx context.Context, priceID string) (string, error) {
	var name string
	err := g.retry(ctx, "price.get", func() error {
		params := &stripe.PriceParams{Params: stripe.Params{Context: ctx}}
		params.AddExpand("product")
		price, err := g.api.Prices.Get(priceID, params)
		if err != nil {
			return err
		}
		if price.Product != nil {
			name = price.Product.Name
		}
		return nil
	})
	return name, err
}

// retry runs fn with exponential backoff while Stripe reports retryable errors.
// Exhausted retries surface as apperr.ErrTransient.
func (g *StripeGateway) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	operation := func() error {
		err := fn()
		lastErr = err
		if err == nil {
			return nil
		}
		if isRetryableStripeError(err) {
			telemetry.Warn("stripe.retry", map[string]any{"op": op, "error": err.Error()})
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = g.maxInterval
	bo.MaxElapsedTime = g.maxElapsedTime
	bo.Reset()

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		logStripeError(op, lastErr)
		if lastErr == nil {
			lastErr = err
		}
		if isRetryableStripeError(lastErr) || errors.Is(lastErr, context.DeadlineExceeded) {
			return apperr.Transient("stripe "+op, lastErr)
		}
		return fmt.Errorf("stripe %s: %w", op, lastErr)
	}
	return nil
}

func isRetryableStripeError(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	if stripeErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	if stripeErr.Type == errorTypeAPIConnection {
		return true
	}
	return stripeErr.HTTPStatusCode >= http.StatusInternalServerError
}

func logStripeError(op string, err error) {
	if err == nil {
		return
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		telemetry.Error("stripe.api_error", map[string]any{
			"op":          op,
			"type":        string(stripeErr.Type),
			"code":        string(stripeErr.Code),
			"message":     stripeErr.Msg,
			"request_id":  stripeErr.RequestID,
			"status_code": stripeErr.HTTPStatusCode,
		})
		return
	}
	telemetry.Error("stripe.error", map[string]any{"op": op, "error": err.Error()})
}
