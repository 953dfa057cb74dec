// Package usage holds the data model for AI spend accounting: per-call
// records, admission decisions, and rolling-window snapshots. All types are
// plain structured data suitable for direct JSON serialization.
package usage

import "time"

// Record is one entry in the usage ledger, appended per completed AI call.
type Record struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
}

// Decision is the outcome of an admission check for a prospective AI call.
// A denied Decision is an expected, user-facing outcome, not a fault.
type Decision struct {
	Allowed         bool    `json:"allowed"`
	Reason          string  `json:"reason,omitempty"`
	EstimatedCost   float64 `json:"estimated_cost"`
	CurrentUsage    float64 `json:"current_usage"`
	HourlyLimit     float64 `json:"hourly_limit"`
	RemainingBudget float64 `json:"remaining_budget"`
}

// Snapshot aggregates the ledger over the trailing window ending at AsOf.
// DailyTotal is a calendar-day accumulator that resets at midnight, separate
// from the rolling window.
type Snapshot struct {
	AsOf                time.Time `json:"as_of"`
	CurrentUsage        float64   `json:"current_usage"`
	HourlyLimit         float64   `json:"hourly_limit"`
	RemainingBudget     float64   `json:"remaining_budget"`
	PercentUsed         float64   `json:"percent_used"`
	DailyTotal          float64   `json:"daily_total"`
	RequestsInWindow    int       `json:"requests_in_window"`
	RateLimitingEnabled bool      `json:"rate_limiting_enabled"`
}
