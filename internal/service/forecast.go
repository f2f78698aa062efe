package service

import (
	"context"
	"fmt"
	"time"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

// ForecastService projects month-end spend from recent history and judges
// it against the configured budget. The KPI payload's projection section
// reuses this same estimator, so dashboard and forecast never disagree.
type ForecastService struct {
	store   database.Store
	agg     *AggregatorService
	budgets *BudgetService
	cfg     *config.Analytics
}

// NewForecastService creates a new ForecastService.
func NewForecastService(store database.Store, agg *AggregatorService, budgets *BudgetService, cfg *config.Analytics) *ForecastService {
	return &ForecastService{store: store, agg: agg, budgets: budgets, cfg: cfg}
}

// TrailingDaily returns the mean daily spend over the configured trailing
// window ending today. Days without activity count as zero; histories
// shorter than the window shrink the divisor to the days actually lived.
func (s *ForecastService) TrailingDaily(ctx context.Context, now time.Time) (float64, error) {
	buckets, err := s.agg.Series(ctx, s.cfg.TrailingDays)
	if err != nil {
		return 0, fmt.Errorf("list daily buckets: %w", err)
	}

	first, err := s.store.FirstActivityAt(ctx)
	if err != nil {
		return 0, fmt.Errorf("first activity: %w", err)
	}

	return cost.TrailingDailyMean(buckets, now, s.cfg.TrailingDays, first), nil
}

// Forecast produces the month-end budget verdict for the current month.
func (s *ForecastService) Forecast(ctx context.Context) (*cost.Forecast, error) {
	now := time.Now().UTC()

	daily, err := s.TrailingDaily(ctx, now)
	if err != nil {
		return nil, err
	}

	used, err := s.agg.MonthSpend(ctx, now)
	if err != nil {
		return nil, err
	}

	b, err := s.budgets.Get(ctx, now)
	if err != nil {
		return nil, err
	}

	monthly := cost.ProjectMonthly(daily, now)
	f := cost.BuildForecast(daily, monthly, used, b.TotalMicro, now)
	return &f, nil
}
