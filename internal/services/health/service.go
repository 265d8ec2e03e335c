// Package health reports whether the service and its backing stores respond.
package health

import (
	"context"
	"time"
)

// Pinger is a dependency that can be probed, such as *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Service encapsulates health-related checks.
type Service struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewService constructs a new health service. Nil checks are skipped.
func NewService(checks map[string]Pinger) *Service {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &Service{checks: active, timeout: 2 * time.Second}
}

// Report is the health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Status probes every dependency.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if len(s.checks) == 0 {
		return report
	}
	report.Checks = make(map[string]string, len(s.checks))
	for name, p := range s.checks {
		pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := p.PingContext(pingCtx)
		cancel()
		if err != nil {
			report.OK = false
			report.Checks[name] = "down"
			continue
		}
		report.Checks[name] = "up"
	}
	return report
}
