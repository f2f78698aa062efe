// Package activity defines the usage record written by agents on every
// model call. Records are append-only: once stored, token and cost fields
// never change.
package activity

import (
	"fmt"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
)

// Activity is one logged unit of agent token consumption, optionally tied
// to a work ticket. CostMicro is the cost captured at write time in
// micro-USD; nil means no cost was stored and it must be derived from the
// token counts and the pricing table.
type Activity struct {
	ID             string    `json:"id"`
	AgentID        string    `json:"agent_id"`
	TicketID       string    `json:"ticket_id,omitempty"`
	Model          string    `json:"model"`
	InputTokens    int64     `json:"input_tokens"`
	OutputTokens   int64     `json:"output_tokens"`
	CostMicro      *int64    `json:"cost_usd_micro,omitempty"`
	PriceEstimated bool      `json:"price_estimated"`
	CreatedAt      time.Time `json:"created_at"`
}

// TotalTokens is derived, never stored.
func (a *Activity) TotalTokens() int64 {
	return a.InputTokens + a.OutputTokens
}

// Valid reports whether a stored record is usable for aggregation.
// Malformed rows are skipped and tallied, never aborting a reduction.
func (a *Activity) Valid() bool {
	return a.AgentID != "" && a.InputTokens >= 0 && a.OutputTokens >= 0
}

// CreateRequest holds the input for recording an activity.
type CreateRequest struct {
	AgentID      string `json:"agent_id"`
	TicketID     string `json:"ticket_id,omitempty"`
	Model        string `json:"model"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// Validate checks that a CreateRequest is well-formed.
func (r *CreateRequest) Validate() error {
	if r.AgentID == "" {
		return fmt.Errorf("agent_id is required: %w", domain.ErrValidation)
	}
	if r.Model == "" {
		return fmt.Errorf("model is required: %w", domain.ErrValidation)
	}
	if r.InputTokens < 0 {
		return fmt.Errorf("input_tokens must be non-negative: %w", domain.ErrValidation)
	}
	if r.OutputTokens < 0 {
		return fmt.Errorf("output_tokens must be non-negative: %w", domain.ErrValidation)
	}
	return nil
}

// Filter scopes activity queries by ticket, agent, and/or a closed time
// window. Zero values leave the dimension unconstrained.
type Filter struct {
	TicketID string
	AgentID  string
	Start    time.Time
	End      time.Time
	Limit    int
	Offset   int
}

// Validate rejects inverted windows. Unbounded windows are allowed here;
// operations that must bound computation enforce their own span limits.
func (f *Filter) Validate() error {
	if !f.Start.IsZero() && !f.End.IsZero() && f.Start.After(f.End) {
		return fmt.Errorf("start is after end: %w", domain.ErrRange)
	}
	return nil
}
