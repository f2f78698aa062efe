// Package budget defines the monthly spend budget configuration.
package budget

import (
	"fmt"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
)

// MonthFormat is the wire format for budget months.
const MonthFormat = "2006-01"

// Config is the budget for one calendar month. A missing row, or a zero
// TotalMicro, means no budget is configured for that month.
type Config struct {
	Month      time.Time  `json:"-"`
	TotalMicro cost.Micro `json:"total_usd_micro"`
	Currency   string     `json:"currency"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// MarshalMonth returns the month in wire format.
func (c Config) MarshalMonth() string {
	return c.Month.Format(MonthFormat)
}

// Configured reports whether this budget caps spend at all.
func (c Config) Configured() bool {
	return c.TotalMicro > 0
}

// TotalUSD returns the configured total in dollars.
func (c Config) TotalUSD() float64 {
	return c.TotalMicro.USD()
}

// MonthKey normalizes any instant to its budget month: the first of the
// month at UTC midnight.
func MonthKey(t time.Time) time.Time {
	start, _ := cost.MonthBounds(t)
	return start
}

// UpdateRequest holds the fields to set a month's budget. An empty Month
// targets the current month; TotalUSD zero clears the budget.
type UpdateRequest struct {
	Month    string  `json:"month,omitempty"`
	TotalUSD float64 `json:"total_usd"`
	Currency string  `json:"currency,omitempty"`
}

// Validate checks that the UpdateRequest is well-formed.
func (r *UpdateRequest) Validate() error {
	if r.TotalUSD < 0 {
		return fmt.Errorf("total_usd cannot be negative: %w", domain.ErrValidation)
	}
	if r.Month != "" {
		if _, err := time.Parse(MonthFormat, r.Month); err != nil {
			return fmt.Errorf("month must be formatted as %s: %w", MonthFormat, domain.ErrValidation)
		}
	}
	if r.Currency != "" && r.Currency != "USD" {
		return fmt.Errorf("unsupported currency %q: %w", r.Currency, domain.ErrValidation)
	}
	return nil
}

// ResolveMonth returns the month the request targets, defaulting to the
// month containing now.
func (r *UpdateRequest) ResolveMonth(now time.Time) time.Time {
	if r.Month == "" {
		return MonthKey(now)
	}
	m, err := time.Parse(MonthFormat, r.Month)
	if err != nil {
		return MonthKey(now)
	}
	return MonthKey(m)
}
