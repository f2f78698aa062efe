package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentdeck"

// Metrics holds all AgentDeck metric instruments.
type Metrics struct {
	ActivitiesRecorded metric.Int64Counter
	ActivityCost       metric.Float64Histogram
	TallyApplied       metric.Int64Counter
	TallyDuplicates    metric.Int64Counter
	KPIBuilds          metric.Int64Counter
	KPILatency         metric.Float64Histogram
	AnomaliesDetected  metric.Int64Counter
	TicketsCreated     metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ActivitiesRecorded, err = meter.Int64Counter("agentdeck.activities.recorded",
		metric.WithDescription("Number of activities recorded"))
	if err != nil {
		return nil, err
	}

	m.ActivityCost, err = meter.Float64Histogram("agentdeck.activity.cost_usd",
		metric.WithDescription("Cost of a recorded activity in USD"))
	if err != nil {
		return nil, err
	}

	m.TallyApplied, err = meter.Int64Counter("agentdeck.tally.applied",
		metric.WithDescription("Number of activities folded into daily buckets"))
	if err != nil {
		return nil, err
	}

	m.TallyDuplicates, err = meter.Int64Counter("agentdeck.tally.duplicates",
		metric.WithDescription("Number of redelivered activities skipped by the tally consumer"))
	if err != nil {
		return nil, err
	}

	m.KPIBuilds, err = meter.Int64Counter("agentdeck.kpi.builds",
		metric.WithDescription("Number of KPI payload builds"))
	if err != nil {
		return nil, err
	}

	m.KPILatency, err = meter.Float64Histogram("agentdeck.kpi.build_seconds",
		metric.WithDescription("KPI payload build latency in seconds"))
	if err != nil {
		return nil, err
	}

	m.AnomaliesDetected, err = meter.Int64Counter("agentdeck.anomalies.detected",
		metric.WithDescription("Number of spend anomalies detected"))
	if err != nil {
		return nil, err
	}

	m.TicketsCreated, err = meter.Int64Counter("agentdeck.tickets.created",
		metric.WithDescription("Number of tickets created"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
