package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agentdeck"

// StartRecordSpan starts a span for recording an activity.
func StartRecordSpan(ctx context.Context, agentID, model string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "activity.record",
		trace.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.String("activity.model", model),
		),
	)
}

// StartKPISpan starts a span for a KPI payload build.
func StartKPISpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "kpi.build")
}

// StartAggregateSpan starts a span for an activity aggregation pass.
func StartAggregateSpan(ctx context.Context, scope string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "cost.aggregate",
		trace.WithAttributes(
			attribute.String("aggregate.scope", scope),
		),
	)
}

// StartTallySpan starts a span for folding one activity into its daily bucket.
func StartTallySpan(ctx context.Context, activityID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tally.apply",
		trace.WithAttributes(
			attribute.String("activity.id", activityID),
		),
	)
}
