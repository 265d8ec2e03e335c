package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecks(t *testing.T) {
	got := NewService(nil).Status(context.Background())
	if !got.OK || got.Checks != nil {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestStatusReportsFailingDependency(t *testing.T) {
	svc := NewService(map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
		"redis":    PingFunc(func(context.Context) error { return errors.New("refused") }),
		"skipped":  nil,
	})

	got := svc.Status(context.Background())
	if got.OK {
		t.Fatalf("expected not ok")
	}
	if got.Checks["postgres"] != "up" || got.Checks["redis"] != "down" {
		t.Fatalf("unexpected checks: %+v", got.Checks)
	}
	if _, ok := got.Checks["skipped"]; ok {
		t.Fatalf("nil checks must be skipped")
	}
}
