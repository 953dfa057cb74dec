package domain

import "errors"

var (
	// ErrUnknownModel signals a model missing from the configured price table.
	ErrUnknownModel = errors.New("unknown model")
	// ErrBudgetExceeded signals a request denied by the usage guard.
	ErrBudgetExceeded = errors.New("hourly budget exceeded")
	// ErrModelProviderError signals a model provider failure.
	ErrModelProviderError = errors.New("model provider error")
	// ErrLeagueNotConfigured signals missing ESPN league credentials.
	ErrLeagueNotConfigured = errors.New("league not configured")
	// ErrTeamNotFound signals a missing team in the league response.
	ErrTeamNotFound = errors.New("team not found")
	// ErrPlayerNotFound signals a player absent from the roster.
	ErrPlayerNotFound = errors.New("player not found")
)
