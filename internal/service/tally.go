package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	adotel "github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/port/broadcast"
	"github.com/agentdeck/agentdeck/internal/port/database"
	"github.com/agentdeck/agentdeck/internal/port/messagequeue"
)

// TallyService is the queue consumer that materializes daily cost buckets
// from published activity records and applies heartbeats sent over the
// queue. Handlers return nil for malformed messages so poison input is
// dropped instead of redelivered forever; transient store failures return
// the error and let the queue retry.
type TallyService struct {
	store   database.Store
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *adotel.Metrics
}

// NewTallyService creates a new TallyService.
func NewTallyService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster, metrics *adotel.Metrics) *TallyService {
	return &TallyService{store: store, queue: queue, hub: hub, metrics: metrics}
}

// HandleActivityRecorded folds one published record into its UTC day's
// bucket. Redeliveries are detected by activity ID and skipped.
func (s *TallyService) HandleActivityRecorded(ctx context.Context, p *messagequeue.ActivityRecordedPayload) error {
	ctx, span := adotel.StartTallySpan(ctx, p.ActivityID)
	defer span.End()

	a := &activity.Activity{
		ID:             p.ActivityID,
		AgentID:        p.AgentID,
		TicketID:       p.TicketID,
		Model:          p.Model,
		InputTokens:    p.InputTokens,
		OutputTokens:   p.OutputTokens,
		CostMicro:      p.CostUSDMicro,
		PriceEstimated: p.PriceEstimated,
		CreatedAt:      p.CreatedAt,
	}
	if a.ID == "" || !a.Valid() {
		slog.Warn("tally: dropping malformed activity message", "activity_id", p.ActivityID)
		return nil
	}

	applied, err := s.store.ApplyActivity(ctx, a)
	if err != nil {
		return fmt.Errorf("apply activity %s: %w", p.ActivityID, err)
	}
	if !applied {
		s.metrics.TallyDuplicates.Add(ctx, 1)
		slog.Debug("tally: duplicate activity skipped", "activity_id", p.ActivityID)
		return nil
	}

	s.metrics.TallyApplied.Add(ctx, 1)
	return nil
}

// HandleAgentHeartbeat applies one queue-delivered heartbeat. Heartbeats
// for agents that were never registered are dropped with a warning.
func (s *TallyService) HandleAgentHeartbeat(ctx context.Context, p *messagequeue.AgentHeartbeatPayload) error {
	if p.AgentID == "" {
		slog.Warn("tally: dropping heartbeat without agent_id")
		return nil
	}

	seen := p.SeenAt
	if seen.IsZero() {
		seen = time.Now().UTC()
	}

	if err := s.store.TouchAgent(ctx, p.AgentID, p.Model, seen); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("tally: heartbeat for unknown agent", "agent_id", p.AgentID)
			return nil
		}
		return fmt.Errorf("touch agent %s: %w", p.AgentID, err)
	}

	s.hub.BroadcastEvent(ctx, ws.EventAgentHeartbeat, ws.AgentHeartbeatEvent{
		AgentID: p.AgentID,
		Status:  string(agent.StatusActive),
		Model:   p.Model,
		SeenAt:  seen,
	})
	return nil
}

// Rebuild drops every daily bucket and re-derives them from the activity
// records. It returns the number of buckets written.
func (s *TallyService) Rebuild(ctx context.Context) (int64, error) {
	n, err := s.store.RebuildDailyBuckets(ctx)
	if err != nil {
		return 0, fmt.Errorf("rebuild daily buckets: %w", err)
	}
	slog.Info("daily buckets rebuilt", "buckets", n)
	return n, nil
}

// StartSubscribers subscribes the tally handlers to their queue subjects.
// Returns cancel functions for each subscription.
func (s *TallyService) StartSubscribers(ctx context.Context) ([]func(), error) {
	var cancels []func()

	cancel, err := s.queue.Subscribe(ctx, messagequeue.SubjectActivityRecorded, func(msgCtx context.Context, _ string, data []byte) error {
		var p messagequeue.ActivityRecordedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			slog.Warn("tally: dropping undecodable activity message", "error", err)
			return nil
		}
		return s.HandleActivityRecorded(msgCtx, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectActivityRecorded, err)
	}
	cancels = append(cancels, cancel)

	cancel, err = s.queue.Subscribe(ctx, messagequeue.SubjectAgentHeartbeat, func(msgCtx context.Context, _ string, data []byte) error {
		var p messagequeue.AgentHeartbeatPayload
		if err := json.Unmarshal(data, &p); err != nil {
			slog.Warn("tally: dropping undecodable heartbeat message", "error", err)
			return nil
		}
		return s.HandleAgentHeartbeat(msgCtx, &p)
	})
	if err != nil {
		cancelAll(cancels)
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectAgentHeartbeat, err)
	}
	cancels = append(cancels, cancel)

	return cancels, nil
}

func cancelAll(cancels []func()) {
	for _, cancel := range cancels {
		cancel()
	}
}
