package billing

import (
	"context"
	"time"
)

// Repo stores at most one subscription per user.
type Repo interface {
	GetByUser(ctx context.Context, userID string) (Subscription, error)
	// UpsertByUser sets the user's subscription to sub, replacing any previous one.
	UpsertByUser(ctx context.Context, sub Subscription) (Subscription, error)
	// DeleteByCustomer removes every subscription of a billing customer and
	// returns the owners of the removed rows.
	DeleteByCustomer(ctx context.Context, customerID string) ([]string, error)
	// ListExpired returns subscriptions whose period ended before t.
	ListExpired(ctx context.Context, before time.Time) ([]Subscription, error)
}

// Transferrer is implemented by repos that can report the users a
// subscription was taken from when an upsert moves it to a new owner.
type Transferrer interface {
	Transfer(ctx context.Context, sub Subscription) (saved Subscription, previousOwners []string, err error)
}
