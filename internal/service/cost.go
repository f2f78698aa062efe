package service

import (
	"context"
	"fmt"
	"time"

	adotel "github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

// aggregatePageSize bounds how many records one reduction pass holds in
// memory at a time.
const aggregatePageSize = 500

// AggregatorService reduces activity records into cost and token totals.
// It pages through the record set instead of loading it whole, so a
// summary over months of activity runs in constant memory.
type AggregatorService struct {
	store   database.Store
	pricing *PricingService
	cfg     *config.Analytics
}

// NewAggregatorService creates a new AggregatorService.
func NewAggregatorService(store database.Store, pricing *PricingService, cfg *config.Analytics) *AggregatorService {
	return &AggregatorService{store: store, pricing: pricing, cfg: cfg}
}

// Summarize reduces every activity matching the filter into totals with
// per-agent and per-model subtotals. Malformed records are counted and
// skipped, never fatal.
func (s *AggregatorService) Summarize(ctx context.Context, f activity.Filter) (*cost.Totals, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	ctx, span := adotel.StartAggregateSpan(ctx, scopeOf(f))
	defer span.End()

	table, err := s.pricing.Table(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pricing: %w", err)
	}
	calc := cost.NewCalculator(table)

	totals := cost.NewTotals()
	f.Limit = aggregatePageSize
	f.Offset = 0
	for {
		page, err := s.store.ListActivities(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("list activities: %w", err)
		}

		for i := range page {
			a := &page[i]
			if !a.Valid() {
				totals.Skip()
				continue
			}
			c, err := s.costOf(a, calc)
			if err != nil {
				totals.Skip()
				continue
			}
			totals.Accumulate(a.AgentID, a.Model, a.InputTokens, a.OutputTokens, c)
		}

		if len(page) < aggregatePageSize {
			break
		}
		f.Offset += aggregatePageSize
	}

	return totals.Finalize(), nil
}

// costOf resolves one record's cost under the configured cost source:
// "stored" trusts the cost captured at write time and derives only when it
// is absent; "recompute" always re-prices against the current table.
func (s *AggregatorService) costOf(a *activity.Activity, calc *cost.Calculator) (cost.Micro, error) {
	if s.cfg.CostSource != config.CostSourceRecompute && a.CostMicro != nil {
		return cost.Micro(*a.CostMicro), nil
	}
	bd, err := calc.Calculate(a.InputTokens, a.OutputTokens, a.Model)
	if err != nil {
		return 0, err
	}
	return bd.Total, nil
}

// TodayStats aggregates the current UTC calendar day for the KPI payload.
func (s *AggregatorService) TodayStats(ctx context.Context) (*cost.TodayStats, error) {
	now := time.Now().UTC()
	totals, err := s.Summarize(ctx, activity.Filter{Start: cost.DayOf(now), End: now})
	if err != nil {
		return nil, err
	}
	return &cost.TodayStats{
		Cost:       totals.CostUSD,
		Tokens:     totals.TotalTokens,
		Activities: totals.Activities,
		Agents:     int64(len(totals.ByAgent)),
	}, nil
}

// MonthSpend sums the daily buckets of the month containing now.
func (s *AggregatorService) MonthSpend(ctx context.Context, now time.Time) (cost.Micro, error) {
	start, end := cost.MonthBounds(now)
	buckets, err := s.store.ListDailyBuckets(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("list daily buckets: %w", err)
	}

	var sum cost.Micro
	for _, b := range buckets {
		sum += b.CostMicro
	}
	return sum, nil
}

// Series returns the stored per-day buckets over the trailing window of
// the given length, ending today.
func (s *AggregatorService) Series(ctx context.Context, days int) ([]cost.DailyBucket, error) {
	day := cost.DayOf(time.Now().UTC())
	start := day.AddDate(0, 0, -(days - 1))
	return s.store.ListDailyBuckets(ctx, start, day.AddDate(0, 0, 1))
}

// scopeOf labels an aggregation span by its tightest filter dimension.
func scopeOf(f activity.Filter) string {
	switch {
	case f.TicketID != "":
		return "ticket"
	case f.AgentID != "":
		return "agent"
	case !f.Start.IsZero() || !f.End.IsZero():
		return "window"
	}
	return "all"
}
