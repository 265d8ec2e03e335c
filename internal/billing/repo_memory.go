package billing

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	subs map[string]Subscription
	now  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{subs: make(map[string]Subscription), now: time.Now}
}

func (r *MemoryRepo) GetByUser(ctx context.Context, userID string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[userID]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

func (r *MemoryRepo) UpsertByUser(ctx context.Context, sub Subscription) (Subscription, error) {
	saved, _, err := r.Transfer(ctx, sub)
	return saved, err
}

// Transfer upserts sub and drops any row of another user holding the same
// stripe subscription id.
func (r *MemoryRepo) Transfer(ctx context.Context, sub Subscription) (Subscription, []string, error) {
	if err := ctx.Err(); err != nil {
		return Subscription{}, nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	var previous []string
	for uid, existing := range r.subs {
		if uid != sub.UserID && sub.StripeSubscriptionID != "" && existing.StripeSubscriptionID == sub.StripeSubscriptionID {
			previous = append(previous, uid)
			delete(r.subs, uid)
		}
	}
	sort.Strings(previous)
	if existing, ok := r.subs[sub.UserID]; ok {
		sub.CreatedAt = existing.CreatedAt
	} else {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	r.subs[sub.UserID] = sub
	return sub, previous, nil
}

func (r *MemoryRepo) DeleteByCustomer(ctx context.Context, customerID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var owners []string
	for uid, sub := range r.subs {
		if sub.StripeCustomerID == customerID {
			owners = append(owners, uid)
			delete(r.subs, uid)
		}
	}
	sort.Strings(owners)
	return owners, nil
}

func (r *MemoryRepo) ListExpired(ctx context.Context, before time.Time) ([]Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscription, 0)
	for _, sub := range r.subs {
		if sub.CurrentPeriodEnd.Before(before) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrentPeriodEnd.Before(out[j].CurrentPeriodEnd) })
	return out, nil
}

// Len reports the number of stored subscriptions.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
