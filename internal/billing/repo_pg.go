package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bads1de/CareerRise/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const subscriptionColumns = `user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
  stripe_current_period_end, stripe_cancel_at_period_end, created_at, updated_at`

func (r *PGRepo) GetByUser(ctx context.Context, userID string) (Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
FROM user_subscriptions
WHERE user_id = $1
LIMIT 1`
	sub, err := scanSubscription(r.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subscription{}, ErrNotFound
		}
		return Subscription{}, err
	}
	return sub, nil
}

const releaseSubscriptionSQL = `
DELETE FROM user_subscriptions
WHERE stripe_subscription_id = $1 AND user_id <> $2
RETURNING user_id`

const upsertSubscriptionSQL = `
INSERT INTO user_subscriptions (user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
  stripe_current_period_end, stripe_cancel_at_period_end, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (user_id) DO UPDATE SET
  stripe_customer_id = EXCLUDED.stripe_customer_id,
  stripe_subscription_id = EXCLUDED.stripe_subscription_id,
  stripe_price_id = EXCLUDED.stripe_price_id,
  stripe_current_period_end = EXCLUDED.stripe_current_period_end,
  stripe_cancel_at_period_end = EXCLUDED.stripe_cancel_at_period_end,
  updated_at = now()
RETURNING ` + subscriptionColumns

func (r *PGRepo) UpsertByUser(ctx context.Context, sub Subscription) (Subscription, error) {
	saved, _, err := r.Transfer(ctx, sub)
	return saved, err
}

// Transfer releases the stripe subscription id from any other user and
// upserts sub in one transaction, so the unique constraint never trips when
// a subscription changes owner.
func (r *PGRepo) Transfer(ctx context.Context, sub Subscription) (Subscription, []string, error) {
	var (
		saved    Subscription
		previous []string
	)
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, releaseSubscriptionSQL, sub.StripeSubscriptionID, sub.UserID)
		if err != nil {
			return fmt.Errorf("release subscription: %w", err)
		}
		for rows.Next() {
			var uid string
			if err := rows.Scan(&uid); err != nil {
				rows.Close()
				return err
			}
			previous = append(previous, uid)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		saved, err = scanSubscription(tx.QueryRowContext(ctx, upsertSubscriptionSQL,
			sub.UserID,
			sub.StripeCustomerID,
			sub.StripeSubscriptionID,
			sub.StripePriceID,
			sub.CurrentPeriodEnd.UTC(),
			sub.CancelAtPeriodEnd,
		))
		if err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return Subscription{}, nil, err
	}
	return saved, previous, nil
}

func (r *PGRepo) DeleteByCustomer(ctx context.Context, customerID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `DELETE FROM user_subscriptions WHERE stripe_customer_id = $1 RETURNING user_id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var owners []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		owners = append(owners, uid)
	}
	return owners, rows.Err()
}

func (r *PGRepo) ListExpired(ctx context.Context, before time.Time) ([]Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
FROM user_subscriptions
WHERE stripe_current_period_end < $1
ORDER BY stripe_current_period_end ASC`
	rows, err := r.DB.QueryContext(ctx, query, before.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.UserID,
		&sub.StripeCustomerID,
		&sub.StripeSubscriptionID,
		&sub.StripePriceID,
		&sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	return sub, err
}
