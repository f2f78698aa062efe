package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	adotel "github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/port/cache"
)

// kpiCacheKey is the cache slot for the serialized KPI snapshot.
const kpiCacheKey = "kpi:payload"

// KPIService assembles the dashboard payload. Sections are computed
// concurrently and fail independently: a section that errors comes back
// nil while the rest of the payload survives. Snapshots are cached for a
// short freshness window and concurrent cold-cache builds collapse into
// one.
type KPIService struct {
	agg       *AggregatorService
	forecast  *ForecastService
	budgets   *BudgetService
	anomalies *AnomalyService
	cache     cache.Cache
	metrics   *adotel.Metrics
	cfg       *config.Analytics
	ttl       time.Duration

	sf singleflight.Group
}

// NewKPIService creates a KPIService with all dependencies.
func NewKPIService(
	agg *AggregatorService,
	forecast *ForecastService,
	budgets *BudgetService,
	anomalies *AnomalyService,
	c cache.Cache,
	metrics *adotel.Metrics,
	cfg *config.Analytics,
	ttl time.Duration,
) *KPIService {
	return &KPIService{
		agg:       agg,
		forecast:  forecast,
		budgets:   budgets,
		anomalies: anomalies,
		cache:     c,
		metrics:   metrics,
		cfg:       cfg,
		ttl:       ttl,
	}
}

// KPIs returns the dashboard payload, serving the cached snapshot when it
// is still fresh.
func (s *KPIService) KPIs(ctx context.Context) (*cost.KPIs, error) {
	if data, ok, err := s.cache.Get(ctx, kpiCacheKey); err == nil && ok {
		var k cost.KPIs
		if json.Unmarshal(data, &k) == nil {
			return &k, nil
		}
	}

	v, err, _ := s.sf.Do(kpiCacheKey, func() (any, error) {
		return s.build(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*cost.KPIs), nil
}

// build computes all sections of the payload in parallel. Section errors
// are logged and leave that section nil; they never fail the build.
func (s *KPIService) build(ctx context.Context) (*cost.KPIs, error) {
	started := time.Now()
	ctx, span := adotel.StartKPISpan(ctx)
	defer span.End()

	now := time.Now().UTC()
	k := &cost.KPIs{Timestamp: now}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		today, err := s.agg.TodayStats(gctx)
		if err != nil {
			slog.Warn("kpi: today section failed", "error", err)
			return nil
		}
		k.Today = today
		m := cost.DeriveMetrics(*today)
		k.Metrics = &m
		return nil
	})

	g.Go(func() error {
		used, usedErr := s.agg.MonthSpend(gctx, now)
		b, budgetErr := s.budgets.Get(gctx, now)
		if usedErr != nil || budgetErr != nil {
			slog.Warn("kpi: budget section failed", "spend_error", usedErr, "budget_error", budgetErr)
			return nil
		}
		bs := cost.BudgetUsage(used, b.TotalMicro)
		k.Budget = &bs

		daily, err := s.forecast.TrailingDaily(gctx, now)
		if err != nil {
			slog.Warn("kpi: projection section failed", "error", err)
			return nil
		}
		monthly := cost.ProjectMonthly(daily, now)
		f := cost.BuildForecast(daily, monthly, used, b.TotalMicro, now)
		k.Projected = &cost.Projection{
			Daily:                  daily,
			Monthly:                monthly,
			AtRisk:                 f.AtRisk,
			RecommendedDailyBudget: f.RecommendedDailyBudget,
		}
		return nil
	})

	g.Go(func() error {
		anomalies, err := s.anomalies.Detect(gctx, 0)
		if err != nil {
			slog.Warn("kpi: anomaly section failed", "error", err)
			return nil
		}
		k.AnomalyCount = len(anomalies)
		if len(anomalies) > s.cfg.AnomalyTopN {
			anomalies = anomalies[:s.cfg.AnomalyTopN]
		}
		k.Anomalies = anomalies
		return nil
	})

	// Section goroutines never return errors, but keep the contract honest.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if data, err := json.Marshal(k); err == nil {
		_ = s.cache.Set(ctx, kpiCacheKey, data, s.ttl)
	}

	s.metrics.KPIBuilds.Add(ctx, 1)
	s.metrics.KPILatency.Record(ctx, time.Since(started).Seconds())

	return k, nil
}
