package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/budget"
)

func (s *Store) GetBudget(ctx context.Context, month time.Time) (*budget.Config, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT month, total_micro, currency, updated_at
		 FROM budgets WHERE month = $1`, dateArg(budget.MonthKey(month)))

	var c budget.Config
	err := row.Scan(&c.Month, &c.TotalMicro, &c.Currency, &c.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get budget %s", month.Format(budget.MonthFormat))
	}
	return &c, nil
}

func (s *Store) PutBudget(ctx context.Context, c *budget.Config) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO budgets (month, total_micro, currency, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (month) DO UPDATE SET
		   total_micro = EXCLUDED.total_micro,
		   currency = EXCLUDED.currency,
		   updated_at = EXCLUDED.updated_at`,
		dateArg(budget.MonthKey(c.Month)), c.TotalMicro, c.Currency, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put budget %s: %w", c.Month.Format(budget.MonthFormat), err)
	}
	return nil
}
