package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps users in process memory. Used when no database is configured.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]User
	clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:  make(map[string]User),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	return r.write(ctx, func(now time.Time) error {
		prev, seen := r.byID[user.ID]
		user.CreatedAt, user.StripeCustomerID = now, ""
		if seen {
			user.CreatedAt = prev.CreatedAt
			user.StripeCustomerID = prev.StripeCustomerID
		}
		user.UpdatedAt = now
		r.byID[user.ID] = user
		return nil
	})
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := r.byID[userID]; ok {
		return user, nil
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return r.write(ctx, func(now time.Time) error {
		user, ok := r.byID[userID]
		if !ok {
			return ErrNotFound
		}
		user.StripeCustomerID, user.UpdatedAt = customerID, now
		r.byID[userID] = user
		return nil
	})
}

func (r *MemoryRepo) write(ctx context.Context, fn func(now time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.clock())
}
