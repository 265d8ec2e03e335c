package resumes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repo for local development and tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	resumes map[string]Resume
	now     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{resumes: make(map[string]Resume), now: time.Now}
}

func (r *MemoryRepo) FindByIDAndOwner(ctx context.Context, id, userID string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resumes[id]
	if !ok || res.UserID != userID {
		return Resume{}, ErrNotFound
	}
	return copyResume(res), nil
}

func (r *MemoryRepo) CountByOwner(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, res := range r.resumes {
		if res.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepo) Create(ctx context.Context, res Resume) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	now := r.now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now
	r.resumes[res.ID] = copyResume(res)
	return copyResume(res), nil
}

func (r *MemoryRepo) Update(ctx context.Context, res Resume) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.resumes[res.ID]
	if !ok || existing.UserID != res.UserID {
		return Resume{}, ErrNotFound
	}
	res.CreatedAt = existing.CreatedAt
	res.UpdatedAt = r.now().UTC()
	r.resumes[res.ID] = copyResume(res)
	return copyResume(res), nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, userID string) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Resume, 0)
	for _, res := range r.resumes {
		if res.UserID == userID {
			out = append(out, copyResume(res))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.resumes[id]
	if !ok || existing.UserID != userID {
		return ErrNotFound
	}
	delete(r.resumes, id)
	return nil
}

func copyResume(r Resume) Resume {
	out := r
	out.Content = r.Content.Clone()
	if r.PhotoURL != nil {
		u := *r.PhotoURL
		out.PhotoURL = &u
	}
	return out
}
