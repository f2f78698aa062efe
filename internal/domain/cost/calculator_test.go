package cost

import (
	"errors"
	"testing"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/pricing"
)

func testTable(t *testing.T) *pricing.Table {
	t.Helper()
	table, err := pricing.NewTable([]pricing.Entry{
		{Model: "gpt-4o", InputPer1KMicro: 2500, OutputPer1KMicro: 10000},
		{Model: "claude-sonnet-4", InputPer1KMicro: 3000, OutputPer1KMicro: 15000},
		{Model: pricing.FallbackModel, InputPer1KMicro: 15000, OutputPer1KMicro: 75000},
	})
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestCalculateKnownModel(t *testing.T) {
	calc := NewCalculator(testTable(t))

	b, err := calc.Calculate(1000, 500, "gpt-4o")
	if err != nil {
		t.Fatal(err)
	}

	if b.Input != 2500 {
		t.Errorf("expected input cost 2500 micro, got %d", b.Input)
	}
	if b.Output != 5000 {
		t.Errorf("expected output cost 5000 micro, got %d", b.Output)
	}
	if b.Total != 7500 {
		t.Errorf("expected total 7500 micro, got %d", b.Total)
	}
	if b.PriceEstimated {
		t.Error("known model must not be tagged estimated")
	}
}

func TestCalculateTotalIsExactSum(t *testing.T) {
	calc := NewCalculator(testTable(t))

	cases := []struct{ in, out int64 }{
		{0, 0}, {1, 1}, {17, 31}, {999, 1001}, {123456, 654321},
	}
	for _, c := range cases {
		b, err := calc.Calculate(c.in, c.out, "claude-sonnet-4")
		if err != nil {
			t.Fatal(err)
		}
		if b.Total != b.Input+b.Output {
			t.Errorf("(%d,%d): total %d != input %d + output %d", c.in, c.out, b.Total, b.Input, b.Output)
		}
	}
}

func TestCalculateLinear(t *testing.T) {
	calc := NewCalculator(testTable(t))

	single, err := calc.Calculate(1000, 500, "gpt-4o")
	if err != nil {
		t.Fatal(err)
	}
	double, err := calc.Calculate(2000, 1000, "gpt-4o")
	if err != nil {
		t.Fatal(err)
	}

	if double.Total != 2*single.Total {
		t.Errorf("doubling tokens should double cost: %d vs 2x%d", double.Total, single.Total)
	}
}

func TestCalculateMonotonic(t *testing.T) {
	calc := NewCalculator(testTable(t))

	var prev Micro = -1
	for _, tokens := range []int64{0, 1, 7, 100, 999, 1000, 1001, 50000} {
		b, err := calc.Calculate(tokens, 0, "gpt-4o")
		if err != nil {
			t.Fatal(err)
		}
		if b.Total < prev {
			t.Errorf("cost decreased at %d tokens: %d < %d", tokens, b.Total, prev)
		}
		prev = b.Total
	}
}

func TestCalculateUnknownModelFallback(t *testing.T) {
	calc := NewCalculator(testTable(t))

	b, err := calc.Calculate(1000, 1000, "brand-new-model")
	if err != nil {
		t.Fatal(err)
	}

	if !b.PriceEstimated {
		t.Error("unknown model must be tagged estimated")
	}
	if b.Total == 0 {
		t.Error("unknown model must price via fallback, never a silent zero")
	}
	if b.Input != 15000 || b.Output != 75000 {
		t.Errorf("expected fallback pricing, got input %d output %d", b.Input, b.Output)
	}
}

func TestCalculateNegativeTokens(t *testing.T) {
	calc := NewCalculator(testTable(t))

	if _, err := calc.Calculate(-1, 0, "gpt-4o"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for negative input, got: %v", err)
	}
	if _, err := calc.Calculate(0, -1, "gpt-4o"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for negative output, got: %v", err)
	}
}

func TestCalculateZeroTokens(t *testing.T) {
	calc := NewCalculator(testTable(t))

	b, err := calc.Calculate(0, 0, "gpt-4o")
	if err != nil {
		t.Fatal(err)
	}
	if b.Input != 0 || b.Output != 0 || b.Total != 0 {
		t.Errorf("zero tokens must cost zero, got %+v", b)
	}
}

func TestPerTokensRounding(t *testing.T) {
	tests := []struct {
		tokens int64
		per1K  Micro
		want   Micro
	}{
		{1000, 2500, 2500},
		{500, 2500, 1250},
		{1, 2500, 3},    // 2.5 micro rounds up
		{1, 100, 0},     // 0.1 micro rounds down
		{0, 2500, 0},
		{1000, 0, 0},
	}
	for _, tt := range tests {
		if got := PerTokens(tt.tokens, tt.per1K); got != tt.want {
			t.Errorf("PerTokens(%d, %d) = %d, want %d", tt.tokens, tt.per1K, got, tt.want)
		}
	}
}

func TestMicroUSD(t *testing.T) {
	if got := Micro(2_500_000).USD(); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
	if got := FromUSD(2.5); got != 2_500_000 {
		t.Errorf("expected 2500000 micro, got %d", got)
	}
	if got := FromUSD(0.0000004); got != 0 {
		t.Errorf("sub-micro amounts round to zero, got %d", got)
	}
}
