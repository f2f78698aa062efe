package main

import (
	"context"

	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/service"
)

// costAnswerer adapts the analytics services to the A2A Answerer port.
type costAnswerer struct {
	kpis      *service.KPIService
	agg       *service.AggregatorService
	anomalies *service.AnomalyService
}

func (a *costAnswerer) KPIs(ctx context.Context) (*cost.KPIs, error) {
	return a.kpis.KPIs(ctx)
}

func (a *costAnswerer) Summarize(ctx context.Context, f activity.Filter) (*cost.Totals, error) {
	return a.agg.Summarize(ctx, f)
}

func (a *costAnswerer) Anomalies(ctx context.Context, days int) ([]cost.Anomaly, error) {
	return a.anomalies.Detect(ctx, days)
}
