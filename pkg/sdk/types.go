package sideline

import "time"

// RosterRow is one lineup slot of the fantasy roster.
type RosterRow struct {
	Slot      string  `json:"slot"`
	Player    string  `json:"player"`
	Position  string  `json:"position"`
	NFLTeam   string  `json:"nfl_team"`
	NFLAbbrev string  `json:"nfl_abbrev"`
	Projected float64 `json:"projected"`
	Injury    string  `json:"injury,omitempty"`
}

// Roster is the team roster for a week.
type Roster struct {
	TeamName string      `json:"team_name"`
	Week     int         `json:"week"`
	Rows     []RosterRow `json:"rows"`
}

// MatchupTeam is one side of a weekly matchup.
type MatchupTeam struct {
	TeamID         int     `json:"team_id"`
	Name           string  `json:"name"`
	Record         string  `json:"record"`
	Score          float64 `json:"score"`
	ProjectedTotal float64 `json:"projected_total"`
	WinProbability int     `json:"win_probability"`
}

// Matchup is a weekly head-to-head pairing.
type Matchup struct {
	Week int         `json:"week"`
	Home MatchupTeam `json:"home"`
	Away MatchupTeam `json:"away"`
}

// TokenUsage reports prompt and completion token counts of a model call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Advice is the result of a single-shot analysis endpoint.
type Advice struct {
	Feature string     `json:"feature"`
	Content string     `json:"content"`
	Model   string     `json:"model"`
	Usage   TokenUsage `json:"usage"`
	Cost    float64    `json:"cost"`
}

// ChatReply is the assistant's answer to one chat turn.
type ChatReply struct {
	ConversationID string   `json:"conversation_id"`
	Content        string   `json:"content"`
	ToolsUsed      []string `json:"tools_used,omitempty"`
	RateLimited    bool     `json:"rate_limited,omitempty"`
}

// UsageReport is the rolling-hour budget report.
type UsageReport struct {
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

// BudgetDecision mirrors the admission decision attached to 429 responses.
type BudgetDecision struct {
	Allowed         bool    `json:"allowed"`
	Reason          string  `json:"reason,omitempty"`
	EstimatedCost   float64 `json:"estimated_cost"`
	CurrentUsage    float64 `json:"current_usage"`
	HourlyLimit     float64 `json:"hourly_limit"`
	RemainingBudget float64 `json:"remaining_budget"`
}

// Health is the service health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
