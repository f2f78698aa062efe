// Package service implements business logic on top of ports.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	adotel "github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/port/broadcast"
	"github.com/agentdeck/agentdeck/internal/port/database"
	"github.com/agentdeck/agentdeck/internal/port/messagequeue"
	"github.com/agentdeck/agentdeck/internal/resilience"
)

// Activity listing limits.
const (
	defaultActivityLimit = 100
	maxActivityLimit     = 1000
)

// ActivityService records and queries agent usage activity. Recording is
// the hot path: cost is priced at write time, the record is persisted, and
// downstream consumers (daily buckets, dashboards) are fed asynchronously.
type ActivityService struct {
	store   database.Store
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	pricing *PricingService
	breaker *resilience.Breaker
	metrics *adotel.Metrics
	cfg     *config.Analytics
}

// NewActivityService creates an ActivityService with all dependencies.
func NewActivityService(
	store database.Store,
	queue messagequeue.Queue,
	hub broadcast.Broadcaster,
	pricing *PricingService,
	breaker *resilience.Breaker,
	metrics *adotel.Metrics,
	cfg *config.Analytics,
) *ActivityService {
	return &ActivityService{
		store:   store,
		queue:   queue,
		hub:     hub,
		pricing: pricing,
		breaker: breaker,
		metrics: metrics,
		cfg:     cfg,
	}
}

// Record prices and persists one usage record, then publishes it for the
// tally consumer and pushes it to live dashboards. The stored record is
// the source of truth; a failed publish only delays the daily buckets
// until the next rebuild.
func (s *ActivityService) Record(ctx context.Context, req *activity.CreateRequest) (*activity.Activity, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := adotel.StartRecordSpan(ctx, req.AgentID, req.Model)
	defer span.End()

	table, err := s.pricing.Table(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pricing: %w", err)
	}

	bd, err := cost.NewCalculator(table).Calculate(req.InputTokens, req.OutputTokens, req.Model)
	if err != nil {
		return nil, err
	}

	costMicro := int64(bd.Total)
	a := &activity.Activity{
		ID:             uuid.New().String(),
		AgentID:        req.AgentID,
		TicketID:       req.TicketID,
		Model:          req.Model,
		InputTokens:    req.InputTokens,
		OutputTokens:   req.OutputTokens,
		CostMicro:      &costMicro,
		PriceEstimated: bd.PriceEstimated,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.CreateActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	s.publishRecorded(ctx, a)

	s.hub.BroadcastEvent(ctx, ws.EventActivityRecorded, ws.ActivityRecordedEvent{
		ActivityID:     a.ID,
		AgentID:        a.AgentID,
		TicketID:       a.TicketID,
		Model:          a.Model,
		TotalTokens:    a.TotalTokens(),
		CostUSD:        bd.Total.USD(),
		PriceEstimated: a.PriceEstimated,
	})

	s.metrics.ActivitiesRecorded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", a.Model),
		attribute.Bool("estimated", a.PriceEstimated),
	))
	s.metrics.ActivityCost.Record(ctx, bd.Total.USD())

	return a, nil
}

// publishRecorded hands the record to the tally consumer, shielded by the
// circuit breaker so a down queue cannot stall ingest.
func (s *ActivityService) publishRecorded(ctx context.Context, a *activity.Activity) {
	payload := messagequeue.ActivityRecordedPayload{
		ActivityID:     a.ID,
		AgentID:        a.AgentID,
		TicketID:       a.TicketID,
		Model:          a.Model,
		InputTokens:    a.InputTokens,
		OutputTokens:   a.OutputTokens,
		CostUSDMicro:   a.CostMicro,
		PriceEstimated: a.PriceEstimated,
		CreatedAt:      a.CreatedAt,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal activity payload", "activity_id", a.ID, "error", err)
		return
	}

	err = s.breaker.Execute(func() error {
		return s.queue.Publish(ctx, messagequeue.SubjectActivityRecorded, data)
	})
	if err != nil {
		slog.Warn("publish activity.recorded failed, buckets lag until next rebuild",
			"activity_id", a.ID,
			"error", err,
		)
	}
}

// Get returns one activity by ID.
func (s *ActivityService) Get(ctx context.Context, id string) (*activity.Activity, error) {
	return s.store.GetActivity(ctx, id)
}

// List returns activities matching the filter, newest first. The limit is
// defaulted and capped.
func (s *ActivityService) List(ctx context.Context, f activity.Filter) ([]activity.Activity, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Limit <= 0 {
		f.Limit = defaultActivityLimit
	}
	if f.Limit > maxActivityLimit {
		f.Limit = maxActivityLimit
	}
	return s.store.ListActivities(ctx, f)
}

// Recent returns the live activity feed over the configured lookback window.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]activity.Activity, error) {
	return s.List(ctx, activity.Filter{
		Start: time.Now().UTC().Add(-s.cfg.RecentWindow),
		Limit: limit,
	})
}
