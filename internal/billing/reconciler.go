package billing

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// DefaultSchedule is used when no reconcile schedule is configured.
const DefaultSchedule = "@every 6h"

// Reconciler periodically refreshes subscriptions whose period has ended, so
// a missed webhook cannot leave a user on a paid tier forever.
type Reconciler struct {
	svc      *Service
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
}

func NewReconciler(svc *Service, schedule string) *Reconciler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Reconciler{
		svc:      svc,
		cron:     cron.New(cron.WithLogger(cron.DefaultLogger)),
		schedule: schedule,
		timeout:  5 * time.Minute,
	}
}

// Start registers the job, starts the scheduler and runs one pass immediately.
func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.RunOnce); err != nil {
		return err
	}
	r.cron.Start()
	telemetry.Info("billing.reconciler_started", map[string]any{"schedule": r.schedule})

	go r.RunOnce()
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
	telemetry.Info("billing.reconciler_stopped", nil)
}

func (r *Reconciler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	started := time.Now()
	n, err := r.svc.Reconcile(ctx)
	fields := map[string]any{"checked": n, "duration_ms": time.Since(started).Milliseconds()}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Warn("billing.reconcile_done", fields)
		return
	}
	telemetry.Info("billing.reconcile_done", fields)
}
