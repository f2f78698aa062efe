// Package database defines the database store port (interface).
package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/domain/apikey"
	"github.com/agentdeck/agentdeck/internal/domain/budget"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/domain/pricing"
	"github.com/agentdeck/agentdeck/internal/domain/settings"
	"github.com/agentdeck/agentdeck/internal/domain/ticket"
)

// Store is the port interface for database operations.
type Store interface {
	// Activities. The record set is append-only: there are no update or
	// delete operations.
	CreateActivity(ctx context.Context, a *activity.Activity) error
	GetActivity(ctx context.Context, id string) (*activity.Activity, error)
	ListActivities(ctx context.Context, f activity.Filter) ([]activity.Activity, error)
	// FirstActivityAt returns the zero time and a nil error when no
	// activities exist yet.
	FirstActivityAt(ctx context.Context) (time.Time, error)

	// Daily cost buckets. ApplyActivity folds one activity into its day's
	// bucket exactly once, keyed by activity id; it reports false when the
	// activity was already applied. AggregateDaily recomputes the per-day
	// rollup straight from the record set. Both range queries are half-open:
	// days d with start <= d < end.
	ApplyActivity(ctx context.Context, a *activity.Activity) (bool, error)
	ListDailyBuckets(ctx context.Context, start, end time.Time) ([]cost.DailyBucket, error)
	AggregateDaily(ctx context.Context, start, end time.Time) ([]cost.DailyBucket, error)
	RebuildDailyBuckets(ctx context.Context) (int64, error)

	// Agents
	CreateAgent(ctx context.Context, a *agent.Agent) error
	GetAgent(ctx context.Context, id string) (*agent.Agent, error)
	ListAgents(ctx context.Context) ([]agent.Agent, error)
	TouchAgent(ctx context.Context, id, model string, seenAt time.Time) error

	// Tickets. UpdateTicket enforces optimistic concurrency on Version and
	// returns domain.ErrConflict on a stale version.
	CreateTicket(ctx context.Context, t *ticket.Ticket) error
	GetTicket(ctx context.Context, id string) (*ticket.Ticket, error)
	ListTickets(ctx context.Context, status ticket.Status) ([]ticket.Ticket, error)
	UpdateTicket(ctx context.Context, t *ticket.Ticket) error

	// Pricing
	ListPricing(ctx context.Context) ([]pricing.Entry, error)
	UpsertPricing(ctx context.Context, e *pricing.Entry) error
	DeletePricing(ctx context.Context, model string) error

	// Budgets
	GetBudget(ctx context.Context, month time.Time) (*budget.Config, error)
	PutBudget(ctx context.Context, c *budget.Config) error

	// Settings
	ListSettings(ctx context.Context, namespace string) ([]settings.Setting, error)
	GetSetting(ctx context.Context, namespace, key string) (*settings.Setting, error)
	UpsertSettings(ctx context.Context, namespace string, values map[string]json.RawMessage) error

	// API keys
	CreateAPIKey(ctx context.Context, k *apikey.Key) error
	ListAPIKeys(ctx context.Context) ([]apikey.Key, error)
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]apikey.Key, error)
	RevokeAPIKey(ctx context.Context, id string, at time.Time) error

	// Ping reports whether the backing database is reachable.
	Ping(ctx context.Context) error
}
