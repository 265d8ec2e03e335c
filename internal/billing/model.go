package billing

import (
	"time"

	"github.com/stripe/stripe-go/v78"
)

// Subscription is the local mirror of a user's billing subscription. A user
// without a row is on the free tier.
type Subscription struct {
	UserID               string    `json:"userId"`
	StripeCustomerID     string    `json:"stripeCustomerId"`
	StripeSubscriptionID string    `json:"stripeSubscriptionId"`
	StripePriceID        string    `json:"stripePriceId"`
	CurrentPeriodEnd     time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool      `json:"cancelAtPeriodEnd"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Webhook event types handled by the sync.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// metadataUserID is the key under which checkout stores the owning user.
const metadataUserID = "userId"

// liveStatus reports whether a subscription in this status keeps its local record.
func liveStatus(s stripe.SubscriptionStatus) bool {
	switch s {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing, stripe.SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}
