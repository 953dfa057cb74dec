package usage

import (
	"fmt"

	"github.com/sideline-ai/sideline/internal/domain"
)

// PerThousand holds per-1000-token prices in USD for one model tier.
type PerThousand struct {
	Input  float64
	Output float64
}

// PriceTable maps a model identifier to its token prices.
type PriceTable map[string]PerThousand

// DefaultPrices returns the built-in OpenAI price table (per 1K tokens).
func DefaultPrices() PriceTable {
	return PriceTable{
		"gpt-4":         {Input: 0.03, Output: 0.06},
		"gpt-4-turbo":   {Input: 0.01, Output: 0.03},
		"gpt-4o":        {Input: 0.005, Output: 0.015},
		"gpt-3.5-turbo": {Input: 0.0005, Output: 0.0015},
	}
}

// Cost computes the exact cost of a call with the given token counts.
// Returns domain.ErrUnknownModel when the model has no price entry.
func (p PriceTable) Cost(model string, inputTokens, outputTokens int) (float64, error) {
	prices, ok := p[model]
	if !ok {
		return 0, fmt.Errorf("model %q: %w", model, domain.ErrUnknownModel)
	}
	return float64(inputTokens)/1000*prices.Input + float64(outputTokens)/1000*prices.Output, nil
}

// Validate checks the table is usable: non-empty with non-negative prices.
func (p PriceTable) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("price table is empty")
	}
	for model, prices := range p {
		if prices.Input < 0 || prices.Output < 0 {
			return fmt.Errorf("model %q has negative prices", model)
		}
	}
	return nil
}
