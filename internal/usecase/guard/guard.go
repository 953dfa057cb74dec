// Package guard implements the AI usage guard: a rolling-hourly cost budget
// that admits or rejects prospective model calls and accounts for completed
// ones. Check is a side-effect-free dry run; Record appends to the ledger.
// Check and Record for the same logical call are deliberately not atomic as
// one unit, so two concurrent callers may both be admitted when each fits
// under the limit individually. The overshoot is accepted and recorded.
package guard

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sideline-ai/sideline/internal/domain/usage"
)

// Window is the trailing duration over which spend is accumulated.
// The window is half-open: a record exactly at asOf-Window is excluded,
// a record exactly at asOf is included.
const Window = time.Hour

// storeTimeout bounds write-behind persistence so store latency never
// stalls the caller.
const storeTimeout = 2 * time.Second

// Config holds the immutable budget settings, loaded once at startup.
type Config struct {
	// HourlyLimit is the hard cap in USD. A non-positive limit with
	// Enabled=true denies every admission (degenerate but non-fatal).
	HourlyLimit float64
	// Prices maps model identifiers to per-1K-token prices.
	Prices usage.PriceTable
	// Enabled toggles admission control. When false, Check always allows
	// and Record keeps appending for observability.
	Enabled bool
}

// UsageStore is the optional write-behind persistence for usage counters.
// The in-memory ledger stays authoritative; store writes are observability
// data and their failures are logged, never propagated.
type UsageStore interface {
	AddSpend(ctx context.Context, model string, at time.Time, costMillidollars int64) error
}

// Guard gates every AI call against the rolling-hourly budget.
// Safe for concurrent use.
type Guard struct {
	cfg    Config
	store  UsageStore
	logger *zap.Logger

	// now is injectable so tests can pin the window boundary.
	now func() time.Time

	mu     sync.RWMutex
	ledger []usage.Record

	// Daily spend accumulates per calendar day and resets when a Record
	// lands on a new day. Independent of the rolling window.
	dailySpent float64
	dailyDay   time.Time
}

// New creates a usage guard. The price table must be valid; a degenerate
// hourly limit is logged as a configuration anomaly, not an error.
func New(cfg Config, logger *zap.Logger) (*Guard, error) {
	if err := cfg.Prices.Validate(); err != nil {
		return nil, fmt.Errorf("price table: %w", err)
	}
	if cfg.Enabled && cfg.HourlyLimit <= 0 {
		logger.Warn("hourly limit is not positive, every admission will be denied",
			zap.Float64("hourly_limit", cfg.HourlyLimit))
	}
	return &Guard{cfg: cfg, logger: logger, now: time.Now}, nil
}

// WithClock replaces the wall clock. Intended for tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// WithStore attaches write-behind persistence for usage counters.
func (g *Guard) WithStore(store UsageStore) *Guard {
	g.store = store
	return g
}

// EstimateCost computes the expected cost of a call from the price table.
// Pure function; returns domain.ErrUnknownModel for unpriced models.
func (g *Guard) EstimateCost(model string, expectedInput, expectedOutput int) (float64, error) {
	return g.cfg.Prices.Cost(model, expectedInput, expectedOutput)
}

// Check decides whether a prospective call fits under the hourly budget.
// Side-effect free: nothing is appended and re-checking after a denial is
// always safe. Allows on exact equality, denies on strict excess. Every
// decision carries the window numbers as of the check, whatever the outcome,
// so callers can report them without inspecting the path taken.
func (g *Guard) Check(model string, expectedInput, expectedOutput int) usage.Decision {
	asOf := g.now()
	g.mu.RLock()
	current, _ := g.windowLocked(asOf)
	g.mu.RUnlock()

	d := usage.Decision{
		CurrentUsage:    current,
		HourlyLimit:     g.cfg.HourlyLimit,
		RemainingBudget: math.Max(0, g.cfg.HourlyLimit-current),
	}

	estimated, err := g.EstimateCost(model, expectedInput, expectedOutput)
	if err != nil {
		d.Reason = err.Error()
		return d
	}
	d.EstimatedCost = estimated

	if !g.cfg.Enabled {
		d.Allowed = true
		return d
	}

	if g.cfg.HourlyLimit <= 0 {
		d.Reason = "hourly limit is not positive, all requests are denied"
		return d
	}

	if current+estimated > g.cfg.HourlyLimit {
		d.Reason = fmt.Sprintf(
			"would exceed hourly limit of $%.2f: current usage $%.2f, estimated cost $%.4f, remaining budget $%.2f",
			g.cfg.HourlyLimit, current, estimated, d.RemainingBudget)
		return d
	}

	d.Allowed = true
	return d
}

// Record appends the actual cost of a completed call to the ledger.
// Never performs a budget check: an admitted call must be accounted for even
// when concurrent admits pushed the true total past the limit. A zero
// completedAt defaults to the guard's clock.
func (g *Guard) Record(model string, actualInput, actualOutput int, completedAt time.Time) (usage.Record, error) {
	cost, err := g.cfg.Prices.Cost(model, actualInput, actualOutput)
	if err != nil {
		return usage.Record{}, err
	}
	if completedAt.IsZero() {
		completedAt = g.now()
	}

	rec := usage.Record{
		Timestamp:    completedAt,
		Model:        model,
		InputTokens:  actualInput,
		OutputTokens: actualOutput,
		Cost:         cost,
	}

	g.mu.Lock()
	now := g.now()
	g.pruneLocked(now)
	g.rollDayLocked(now)
	g.dailySpent += cost
	g.ledger = append(g.ledger, rec)
	store := g.store
	g.mu.Unlock()

	if store != nil {
		// Write-behind outside the lock with its own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := store.AddSpend(ctx, model, completedAt, Millidollars(cost)); err != nil {
			g.logger.Warn("failed to persist usage record",
				zap.String("model", model), zap.Error(err))
		}
	}

	return rec, nil
}

// Snapshot aggregates the trailing window ending at asOf for display.
// A zero asOf defaults to the guard's clock. The daily total reads zero when
// asOf falls on a different calendar day than the last recorded call.
func (g *Guard) Snapshot(asOf time.Time) usage.Snapshot {
	if asOf.IsZero() {
		asOf = g.now()
	}

	g.mu.RLock()
	current, count := g.windowLocked(asOf)
	daily := 0.0
	if g.dailyDay.Equal(startOfDay(asOf)) {
		daily = g.dailySpent
	}
	g.mu.RUnlock()

	percent := 0.0
	if g.cfg.HourlyLimit > 0 {
		percent = 100 * current / g.cfg.HourlyLimit
	}

	return usage.Snapshot{
		AsOf:                asOf,
		CurrentUsage:        current,
		HourlyLimit:         g.cfg.HourlyLimit,
		RemainingBudget:     math.Max(0, g.cfg.HourlyLimit-current),
		PercentUsed:         percent,
		DailyTotal:          daily,
		RequestsInWindow:    count,
		RateLimitingEnabled: g.cfg.Enabled,
	}
}

// windowLocked sums cost and counts records with timestamps in
// (asOf-Window, asOf]. Caller must hold at least a read lock.
func (g *Guard) windowLocked(asOf time.Time) (float64, int) {
	cutoff := asOf.Add(-Window)
	var sum float64
	var count int
	for i := range g.ledger {
		ts := g.ledger[i].Timestamp
		if ts.After(cutoff) && !ts.After(asOf) {
			sum += g.ledger[i].Cost
			count++
		}
	}
	return sum, count
}

// rollDayLocked resets the daily accumulator when the calendar day of now
// differs from the tracked day. Caller must hold the write lock.
func (g *Guard) rollDayLocked(now time.Time) {
	day := startOfDay(now)
	if !g.dailyDay.Equal(day) {
		g.dailyDay = day
		g.dailySpent = 0
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// pruneLocked drops records that can no longer fall inside any window
// ending at or after now. Caller must hold the write lock.
func (g *Guard) pruneLocked(now time.Time) {
	cutoff := now.Add(-Window)
	kept := g.ledger[:0]
	for i := range g.ledger {
		if g.ledger[i].Timestamp.After(cutoff) {
			kept = append(kept, g.ledger[i])
		}
	}
	g.ledger = kept
}

// Millidollars converts a USD amount to integer millidollars for storage.
func Millidollars(cost float64) int64 {
	return int64(math.Round(cost * 1000))
}
