package auth

import (
	"context"
	"sync"
	"time"

	"github.com/bads1de/CareerRise/internal/shared/storage/cache"
)

// StateStore holds single-use OAuth state values until the callback arrives.
type StateStore interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	// Consume reports whether state was issued and not yet used or expired.
	Consume(ctx context.Context, state string) (bool, error)
}

// MemoryStates works for a single API process.
type MemoryStates struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryStates() *MemoryStates {
	return &MemoryStates{items: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryStates) Put(_ context.Context, state string, ttl time.Duration) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, exp := range m.items {
		if now.After(exp) {
			delete(m.items, k)
		}
	}
	m.items[state] = now.Add(ttl)
	return nil
}

func (m *MemoryStates) Consume(_ context.Context, state string) (bool, error) {
	m.mu.Lock()
	exp, ok := m.items[state]
	delete(m.items, state)
	m.mu.Unlock()
	return ok && !m.now().After(exp), nil
}

// CacheStates shares state across instances (Lambda, several API pods).
type CacheStates struct {
	Cache cache.Cache
}

const stateKeyPrefix = "oauth:state:"

func (s CacheStates) Put(ctx context.Context, state string, ttl time.Duration) error {
	return s.Cache.Set(ctx, stateKeyPrefix+state, []byte{1}, ttl)
}

func (s CacheStates) Consume(ctx context.Context, state string) (bool, error) {
	key := stateKeyPrefix + state
	_, ok, err := s.Cache.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return true, s.Cache.Del(ctx, key)
}
