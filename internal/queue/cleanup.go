package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bads1de/CareerRise/internal/shared/metrics"
	"github.com/bads1de/CareerRise/internal/shared/storage/object"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// Deleter removes a stored object by its public URL.
type Deleter interface {
	Delete(ctx context.Context, url string) error
}

// PhotoCleanup schedules deletion of orphaned photos. With a queue the delete
// runs in the worker; without one it is attempted inline.
type PhotoCleanup struct {
	Queue Client
	Store Deleter
	Now   func() time.Time
}

func NewPhotoCleanup(q Client, store Deleter) *PhotoCleanup {
	return &PhotoCleanup{Queue: q, Store: store, Now: time.Now}
}

// ScheduleDelete queues or performs removal of url on behalf of userID.
func (p *PhotoCleanup) ScheduleDelete(ctx context.Context, userID, url, reason string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("photo url is required")
	}
	if p.Queue == nil {
		err := DeletePhoto(ctx, p.Store, url)
		if err != nil {
			telemetry.Warn("photo.cleanup_inline_failed", map[string]any{"user_id": userID, "url": url, "reason": reason, "error": err.Error()})
		}
		return err
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	msg := PhotoDelete(url, userID, reason, telemetry.RequestIDFrom(ctx), now())
	if err := p.Queue.Send(ctx, msg); err != nil {
		return fmt.Errorf("enqueue photo cleanup: %w", err)
	}
	telemetry.Info("photo.cleanup_enqueued", map[string]any{"user_id": userID, "url": url, "reason": reason, "request_id": msg.RequestID})
	return nil
}

// DeletePhoto removes url from store. URLs the store does not own are
// reported but count as done, since retrying cannot succeed.
func DeletePhoto(ctx context.Context, store Deleter, url string) error {
	if store == nil {
		return errors.New("object store not configured")
	}
	err := store.Delete(ctx, url)
	if errors.Is(err, object.ErrForeignURL) {
		telemetry.Warn("photo.cleanup_foreign_url", map[string]any{"url": url})
		metrics.IncCleanupJob("discarded")
		return nil
	}
	metrics.IncPhotoOp("delete", err)
	if err != nil {
		metrics.IncCleanupJob("failed")
		return err
	}
	metrics.IncCleanupJob("completed")
	return nil
}
