package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fakeChecker struct{ err error }

func (f *fakeChecker) HealthCheck(context.Context) error { return f.err }

func TestCheck_AllHealthy(t *testing.T) {
	s := New(&fakePinger{}, &fakeChecker{})

	report := s.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("status = %s, want %s", report.Status, Healthy)
	}
	if report.Checks["database"] != CheckOK || report.Checks["model"] != CheckOK {
		t.Errorf("unexpected checks: %v", report.Checks)
	}
}

func TestCheck_DBFailureDegrades(t *testing.T) {
	s := New(&fakePinger{err: errors.New("connection refused")}, &fakeChecker{})

	report := s.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("status = %s, want %s", report.Status, Degraded)
	}
	if report.Checks["database"] != CheckError {
		t.Errorf("database check = %s, want error", report.Checks["database"])
	}
}

func TestCheck_ModelFailureDegrades(t *testing.T) {
	s := New(&fakePinger{}, &fakeChecker{err: errors.New("unauthorized")})

	report := s.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("status = %s, want %s", report.Status, Degraded)
	}
}

func TestCheck_NilComponentsSkipped(t *testing.T) {
	s := New(nil, nil)

	report := s.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("status = %s, want %s with no components", report.Status, Healthy)
	}
	if len(report.Checks) != 0 {
		t.Errorf("expected no checks, got %v", report.Checks)
	}
}
