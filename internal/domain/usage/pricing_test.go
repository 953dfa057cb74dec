package usage

import (
	"errors"
	"testing"

	"github.com/sideline-ai/sideline/internal/domain"
)

func TestPriceTable_Cost(t *testing.T) {
	prices := PriceTable{"gpt-4-turbo": {Input: 0.01, Output: 0.03}}

	cost, err := prices.Cost("gpt-4-turbo", 1800, 620)
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	want := 1800.0/1000*0.01 + 620.0/1000*0.03
	if cost != want {
		t.Errorf("cost = %v, want %v", cost, want)
	}
}

func TestPriceTable_UnknownModel(t *testing.T) {
	prices := DefaultPrices()

	_, err := prices.Cost("claude-nope", 100, 100)
	if !errors.Is(err, domain.ErrUnknownModel) {
		t.Fatalf("expected domain.ErrUnknownModel, got %v", err)
	}
}

func TestPriceTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		prices  PriceTable
		wantErr bool
	}{
		{"defaults valid", DefaultPrices(), false},
		{"empty", PriceTable{}, true},
		{"negative input", PriceTable{"m": {Input: -1, Output: 1}}, true},
		{"negative output", PriceTable{"m": {Input: 1, Output: -1}}, true},
		{"zero prices allowed", PriceTable{"free": {}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.prices.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeniedError_Unwraps(t *testing.T) {
	err := NewDenied(Decision{
		Allowed:       false,
		CurrentUsage:  9.98,
		HourlyLimit:   10.00,
		EstimatedCost: 0.035,
	})

	if !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Fatalf("expected errors.Is(err, ErrBudgetExceeded), got %v", err)
	}

	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatal("expected *DeniedError")
	}
	if denied.Decision.CurrentUsage != 9.98 {
		t.Errorf("decision current usage = %v, want 9.98", denied.Decision.CurrentUsage)
	}
}
