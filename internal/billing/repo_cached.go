package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bads1de/CareerRise/internal/shared/storage/cache"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

const (
	cacheKeyPrefix = "subscription:"
	cacheTTL       = 15 * time.Minute
)

// absentMarker caches "no subscription" so free users skip the database too.
var absentMarker = []byte("null")

// CachedRepo is a read-through cache over Repo keyed by user id. Cache
// failures fall back to the underlying repo.
type CachedRepo struct {
	Repo  Repo
	Cache cache.Cache
	TTL   time.Duration
}

func NewCachedRepo(repo Repo, c cache.Cache) *CachedRepo {
	return &CachedRepo{Repo: repo, Cache: c, TTL: cacheTTL}
}

func (r *CachedRepo) GetByUser(ctx context.Context, userID string) (Subscription, error) {
	key := cacheKeyPrefix + userID
	data, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		telemetry.Warn("billing.cache_get_failed", map[string]any{"key": key, "error": err.Error()})
	}
	if ok {
		if string(data) == string(absentMarker) {
			return Subscription{}, ErrNotFound
		}
		var sub Subscription
		if err := json.Unmarshal(data, &sub); err == nil {
			return sub, nil
		}
	}

	sub, err := r.Repo.GetByUser(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		r.set(ctx, key, absentMarker)
		return Subscription{}, err
	case err != nil:
		return Subscription{}, err
	}
	if data, err := json.Marshal(sub); err == nil {
		r.set(ctx, key, data)
	}
	return sub, nil
}

func (r *CachedRepo) UpsertByUser(ctx context.Context, sub Subscription) (Subscription, error) {
	out, _, err := r.Transfer(ctx, sub)
	return out, err
}

// Transfer invalidates the new owner and every user the subscription was
// taken from.
func (r *CachedRepo) Transfer(ctx context.Context, sub Subscription) (Subscription, []string, error) {
	var (
		out      Subscription
		previous []string
		err      error
	)
	if t, ok := r.Repo.(Transferrer); ok {
		out, previous, err = t.Transfer(ctx, sub)
	} else {
		out, err = r.Repo.UpsertByUser(ctx, sub)
	}
	if err != nil {
		return out, nil, err
	}
	r.invalidate(ctx, append([]string{sub.UserID}, previous...)...)
	return out, previous, nil
}

func (r *CachedRepo) DeleteByCustomer(ctx context.Context, customerID string) ([]string, error) {
	owners, err := r.Repo.DeleteByCustomer(ctx, customerID)
	if err != nil {
		return owners, err
	}
	r.invalidate(ctx, owners...)
	return owners, nil
}

func (r *CachedRepo) ListExpired(ctx context.Context, before time.Time) ([]Subscription, error) {
	return r.Repo.ListExpired(ctx, before)
}

func (r *CachedRepo) set(ctx context.Context, key string, value []byte) {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = cacheTTL
	}
	if err := r.Cache.Set(ctx, key, value, ttl); err != nil {
		telemetry.Warn("billing.cache_set_failed", map[string]any{"key": key, "error": err.Error()})
	}
}

func (r *CachedRepo) invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cacheKeyPrefix+id)
	}
	if err := r.Cache.Del(ctx, keys...); err != nil {
		telemetry.Warn("billing.cache_invalidate_failed", map[string]any{"keys": keys, "error": err.Error()})
	}
}
