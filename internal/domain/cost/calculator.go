package cost

import (
	"fmt"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/pricing"
)

// Breakdown is the cost of one activity split by token direction.
// Total is always exactly Input + Output. PriceEstimated marks costs
// derived from the fallback pricing tier rather than a model-specific row.
type Breakdown struct {
	Input          Micro
	Output         Micro
	Total          Micro
	PriceEstimated bool
}

// Calculator converts token counts into cost against a pricing table
// snapshot. It is pure: same inputs and snapshot, same output.
type Calculator struct {
	table *pricing.Table
}

// NewCalculator creates a Calculator over the given pricing snapshot.
func NewCalculator(table *pricing.Table) *Calculator {
	return &Calculator{table: table}
}

// Calculate derives the cost breakdown for the given token counts and model.
// Unknown models resolve to the fallback tier and tag the result as
// estimated; they never come back as a silent zero. Negative token counts
// are a validation error.
func (c *Calculator) Calculate(inputTokens, outputTokens int64, model string) (Breakdown, error) {
	if inputTokens < 0 {
		return Breakdown{}, fmt.Errorf("input tokens must be non-negative: %w", domain.ErrValidation)
	}
	if outputTokens < 0 {
		return Breakdown{}, fmt.Errorf("output tokens must be non-negative: %w", domain.ErrValidation)
	}

	entry, exact := c.table.Resolve(model)

	in := PerTokens(inputTokens, Micro(entry.InputPer1KMicro))
	out := PerTokens(outputTokens, Micro(entry.OutputPer1KMicro))

	return Breakdown{
		Input:          in,
		Output:         out,
		Total:          in + out,
		PriceEstimated: !exact,
	}, nil
}
