// Package usage builds the spend report served by the dashboard.
package usage

import (
	"context"
	"time"
)

// Report is the hourly budget report. Window fields come from the guard
// snapshot unchanged; DailyTotal is the calendar-day spend.
type Report struct {
	AsOf                time.Time `json:"as_of"`
	CurrentUsage        float64   `json:"current_usage"`
	HourlyLimit         float64   `json:"hourly_limit"`
	RemainingBudget     float64   `json:"remaining_budget"`
	PercentUsed         float64   `json:"percent_used"`
	DailyTotal          float64   `json:"daily_total"`
	RequestsInWindow    int       `json:"requests_in_window"`
	RateLimitingEnabled bool      `json:"rate_limiting_enabled"`
	AvgCostPerRequest   float64   `json:"avg_cost_per_request"`
}

// Service handles usage reporting.
type Service struct {
	sr    SnapshotReader
	daily DailySpendReader
	now   func() time.Time
}

// New creates a Service.
func New(sr SnapshotReader) *Service {
	return &Service{sr: sr, now: time.Now}
}

// WithDailyStore attaches a persisted day counter. When set, the report's
// daily total is read from it instead of the in-memory snapshot, so the
// figure survives process restarts.
func (s *Service) WithDailyStore(daily DailySpendReader) *Service {
	s.daily = daily
	return s
}

// WithClock replaces the time source. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetReport builds the current hourly usage report.
func (s *Service) GetReport(ctx context.Context) Report {
	snap := s.sr.Snapshot(s.now())

	var avg float64
	if snap.RequestsInWindow > 0 {
		avg = snap.CurrentUsage / float64(snap.RequestsInWindow)
	}

	daily := snap.DailyTotal
	if s.daily != nil {
		// Fall back to the in-memory figure when the store read fails.
		if millis, err := s.daily.DaySpend(ctx, snap.AsOf); err == nil {
			daily = float64(millis) / 1000
		}
	}

	return Report{
		AsOf:                snap.AsOf,
		CurrentUsage:        snap.CurrentUsage,
		HourlyLimit:         snap.HourlyLimit,
		RemainingBudget:     snap.RemainingBudget,
		PercentUsed:         snap.PercentUsed,
		DailyTotal:          daily,
		RequestsInWindow:    snap.RequestsInWindow,
		RateLimitingEnabled: snap.RateLimitingEnabled,
		AvgCostPerRequest:   avg,
	}
}
