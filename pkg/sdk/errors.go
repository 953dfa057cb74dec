package sideline

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the API.
const (
	CodeBadRequest          = "bad_request"
	CodeValidationFailed    = "validation_failed"
	CodeBudgetExceeded      = "budget_exceeded"
	CodeUnknownModel        = "unknown_model"
	CodeModelProviderError  = "model_provider_error"
	CodeLeagueNotConfigured = "league_not_configured"
	CodeTeamNotFound        = "team_not_found"
	CodePlayerNotFound      = "player_not_found"
	CodeInternalError       = "internal_error"
)

// APIError is a non-2xx response from the service.
// Decision is populated only on budget_exceeded responses.
type APIError struct {
	StatusCode int
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Decision   *BudgetDecision `json:"decision,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sideline: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsBudgetExceeded reports whether err is a 429 budget denial.
func IsBudgetExceeded(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
