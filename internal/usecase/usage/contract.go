package usage

import (
	"context"
	"time"

	domusage "github.com/sideline-ai/sideline/internal/domain/usage"
)

// SnapshotReader provides read-only access to the budget guard's window state.
type SnapshotReader interface {
	Snapshot(asOf time.Time) domusage.Snapshot
}

// DailySpendReader reads a persisted per-day spend counter in millidollars.
type DailySpendReader interface {
	DaySpend(ctx context.Context, at time.Time) (int64, error)
}
