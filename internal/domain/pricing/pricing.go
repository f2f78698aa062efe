// Package pricing defines the model pricing table used to convert token
// counts into cost. Prices are stored in micro-USD per 1000 tokens so that
// cost arithmetic stays in integers end to end.
package pricing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
)

// FallbackModel is the designated entry applied when a model identifier has
// no specific pricing row. The table refuses to load without it: an unknown
// model must resolve to an estimated price, never to a silent zero.
const FallbackModel = "fallback"

// Entry is the price of one model in micro-USD per 1000 tokens.
type Entry struct {
	Model            string    `json:"model"`
	InputPer1KMicro  int64     `json:"input_per_1k_micro"`
	OutputPer1KMicro int64     `json:"output_per_1k_micro"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate checks that an Entry is well-formed.
func (e *Entry) Validate() error {
	if e.Model == "" {
		return fmt.Errorf("model is required: %w", domain.ErrValidation)
	}
	if e.InputPer1KMicro < 0 {
		return fmt.Errorf("input_per_1k_micro must be non-negative: %w", domain.ErrValidation)
	}
	if e.OutputPer1KMicro < 0 {
		return fmt.Errorf("output_per_1k_micro must be non-negative: %w", domain.ErrValidation)
	}
	return nil
}

// Table is an immutable snapshot of the pricing table keyed by normalized
// model identifier.
type Table struct {
	entries  map[string]Entry
	fallback Entry
}

// NewTable builds a Table from entries. The set must contain the fallback
// entry; everything else is optional.
func NewTable(entries []Entry) (*Table, error) {
	m := make(map[string]Entry, len(entries))
	var fallback Entry
	var haveFallback bool

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Model, err)
		}
		key := Normalize(e.Model)
		m[key] = e
		if key == FallbackModel {
			fallback = e
			haveFallback = true
		}
	}

	if !haveFallback {
		return nil, fmt.Errorf("pricing table has no %q entry: %w", FallbackModel, domain.ErrValidation)
	}

	return &Table{entries: m, fallback: fallback}, nil
}

// Resolve returns the pricing entry for model. The second return reports
// whether the model had its own row; false means the fallback tier was
// applied and the derived cost is an estimate.
func (t *Table) Resolve(model string) (Entry, bool) {
	if e, ok := t.entries[Normalize(model)]; ok {
		return e, true
	}
	return t.fallback, false
}

// Fallback returns the designated fallback entry.
func (t *Table) Fallback() Entry {
	return t.fallback
}

// Entries returns all entries sorted by model identifier.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// Len returns the number of entries including the fallback.
func (t *Table) Len() int {
	return len(t.entries)
}

// Normalize canonicalizes a model identifier for lookup. Providers report
// the same model with inconsistent casing and stray whitespace.
func Normalize(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
