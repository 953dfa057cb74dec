package usage

import (
	"fmt"

	"github.com/sideline-ai/sideline/internal/domain"
)

// DeniedError wraps domain.ErrBudgetExceeded with the guard's Decision so
// callers can surface precise numbers to the end user.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: current usage $%.2f of $%.2f, estimated cost $%.4f",
		domain.ErrBudgetExceeded.Error(),
		e.Decision.CurrentUsage, e.Decision.HourlyLimit, e.Decision.EstimatedCost)
}

func (e *DeniedError) Unwrap() error { return domain.ErrBudgetExceeded }

// NewDenied creates a budget-denied error from an admission decision.
func NewDenied(d Decision) error {
	return &DeniedError{Decision: d}
}
