package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/budget"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/port/broadcast"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

// BudgetService manages per-month spend budgets. Months without a stored
// row fall back to the configured default, so a deployment-wide cap works
// without touching the API.
type BudgetService struct {
	store    database.Store
	hub      broadcast.Broadcaster
	defaults config.Budget
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(store database.Store, hub broadcast.Broadcaster, defaults config.Budget) *BudgetService {
	return &BudgetService{store: store, hub: hub, defaults: defaults}
}

// Get returns the budget for the month containing t.
func (s *BudgetService) Get(ctx context.Context, t time.Time) (*budget.Config, error) {
	month := budget.MonthKey(t)

	b, err := s.store.GetBudget(ctx, month)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.defaultBudget(month), nil
		}
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// Update sets the budget for the requested month.
func (s *BudgetService) Update(ctx context.Context, req *budget.UpdateRequest) (*budget.Config, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	b := &budget.Config{
		Month:      req.ResolveMonth(now),
		TotalMicro: cost.FromUSD(req.TotalUSD),
		Currency:   currency,
		UpdatedAt:  now,
	}

	if err := s.store.PutBudget(ctx, b); err != nil {
		return nil, fmt.Errorf("put budget: %w", err)
	}

	s.hub.BroadcastEvent(ctx, ws.EventBudgetUpdated, ws.BudgetUpdatedEvent{
		Month:    b.MarshalMonth(),
		TotalUSD: b.TotalUSD(),
		Currency: b.Currency,
	})
	slog.Info("budget updated", "month", b.MarshalMonth(), "total_usd", b.TotalUSD())
	return b, nil
}

// defaultBudget materializes the configured default for a month with no
// stored row.
func (s *BudgetService) defaultBudget(month time.Time) *budget.Config {
	currency := s.defaults.Currency
	if currency == "" {
		currency = "USD"
	}
	return &budget.Config{
		Month:      month,
		TotalMicro: cost.FromUSD(s.defaults.MonthlyUSD),
		Currency:   currency,
	}
}
