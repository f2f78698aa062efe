package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/port/broadcast"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

// AgentService manages the agent registry. Status is never stored: it is
// derived from the last heartbeat on every read, so a crashed agent decays
// to idle and then offline without any cleanup job.
type AgentService struct {
	store database.Store
	hub   broadcast.Broadcaster
}

// NewAgentService creates a new AgentService.
func NewAgentService(store database.Store, hub broadcast.Broadcaster) *AgentService {
	return &AgentService{store: store, hub: hub}
}

// Register creates a new agent. Agents start offline until their first
// heartbeat.
func (s *AgentService) Register(ctx context.Context, req *agent.RegisterRequest) (*agent.Agent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &agent.Agent{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Kind:      strings.TrimSpace(req.Kind),
		Model:     req.Model,
		Labels:    req.Labels,
		Status:    agent.StatusOffline,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateAgent(ctx, a); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return a, nil
}

// Get returns one agent with its derived status.
func (s *AgentService) Get(ctx context.Context, id string) (*agent.Agent, error) {
	a, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = agent.StatusAt(a.LastSeen, time.Now().UTC())
	return a, nil
}

// List returns all agents with derived statuses.
func (s *AgentService) List(ctx context.Context) ([]agent.Agent, error) {
	agents, err := s.store.ListAgents(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range agents {
		agents[i].Status = agent.StatusAt(agents[i].LastSeen, now)
	}
	return agents, nil
}

// Heartbeat marks an agent as seen now and pushes the liveness change to
// dashboards. Heartbeats arriving over the queue take the same path via
// the tally consumer.
func (s *AgentService) Heartbeat(ctx context.Context, id string, hb agent.Heartbeat) (*agent.Agent, error) {
	now := time.Now().UTC()
	if err := s.store.TouchAgent(ctx, id, hb.Model, now); err != nil {
		return nil, err
	}

	a, err := s.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = agent.StatusAt(a.LastSeen, now)

	s.hub.BroadcastEvent(ctx, ws.EventAgentHeartbeat, ws.AgentHeartbeatEvent{
		AgentID: a.ID,
		Status:  string(a.Status),
		Model:   a.Model,
		SeenAt:  now,
	})
	return a, nil
}
