package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	adotel "github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/domain/ticket"
	"github.com/agentdeck/agentdeck/internal/port/broadcast"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

// TicketService manages work tickets and their cost rollups.
type TicketService struct {
	store   database.Store
	agg     *AggregatorService
	hub     broadcast.Broadcaster
	metrics *adotel.Metrics
}

// NewTicketService creates a new TicketService.
func NewTicketService(store database.Store, agg *AggregatorService, hub broadcast.Broadcaster, metrics *adotel.Metrics) *TicketService {
	return &TicketService{store: store, agg: agg, hub: hub, metrics: metrics}
}

// Create opens a new ticket.
func (s *TicketService) Create(ctx context.Context, req *ticket.CreateRequest) (*ticket.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &ticket.Ticket{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      ticket.StatusOpen,
		Assignee:    req.Assignee,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.metrics.TicketsCreated.Add(ctx, 1)
	s.hub.BroadcastEvent(ctx, ws.EventTicketCreated, ws.TicketEvent{
		TicketID: t.ID,
		Title:    t.Title,
		Status:   string(t.Status),
		Assignee: t.Assignee,
	})
	return t, nil
}

// Get returns one ticket by ID.
func (s *TicketService) Get(ctx context.Context, id string) (*ticket.Ticket, error) {
	return s.store.GetTicket(ctx, id)
}

// List returns tickets, optionally filtered to one status.
func (s *TicketService) List(ctx context.Context, status ticket.Status) ([]ticket.Ticket, error) {
	if status != "" && !ticket.ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, domain.ErrValidation)
	}
	return s.store.ListTickets(ctx, status)
}

// Update applies partial updates to a ticket under optimistic concurrency;
// a stale version is a conflict. Status changes must follow the workflow.
func (s *TicketService) Update(ctx context.Context, id string, req ticket.UpdateRequest) (*ticket.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Version != t.Version {
		return nil, fmt.Errorf("ticket %s is at version %d, not %d: %w", id, t.Version, req.Version, domain.ErrConflict)
	}

	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Assignee != nil {
		t.Assignee = *req.Assignee
	}
	if req.Status != "" && req.Status != t.Status {
		if !t.Status.CanTransition(req.Status) {
			return nil, fmt.Errorf("cannot move ticket from %s to %s: %w", t.Status, req.Status, domain.ErrValidation)
		}
		t.Status = req.Status
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTicket(ctx, t); err != nil {
		return nil, err
	}

	s.hub.BroadcastEvent(ctx, ws.EventTicketUpdated, ws.TicketEvent{
		TicketID: t.ID,
		Title:    t.Title,
		Status:   string(t.Status),
		Assignee: t.Assignee,
	})
	return t, nil
}

// Stats aggregates all spend booked against one ticket.
func (s *TicketService) Stats(ctx context.Context, id string) (*cost.Totals, error) {
	if _, err := s.store.GetTicket(ctx, id); err != nil {
		return nil, err
	}
	return s.agg.Summarize(ctx, activity.Filter{TicketID: id})
}
