package http

import (
	"context"
	"net/http"

	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/agent"
	"github.com/agentdeck/agentdeck/internal/domain/ticket"
	"github.com/agentdeck/agentdeck/internal/service"
)

// Pinger reports storage liveness for the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker reports message queue connectivity.
type ConnChecker interface {
	IsConnected() bool
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Activities *service.ActivityService
	Aggregator *service.AggregatorService
	KPIs       *service.KPIService
	Forecasts  *service.ForecastService
	Anomalies  *service.AnomalyService
	Tally      *service.TallyService
	Tickets    *service.TicketService
	Agents     *service.AgentService
	Pricing    *service.PricingService
	Budgets    *service.BudgetService
	Settings   *service.SettingsService
	Knowledge  *service.KnowledgeService
	Auth       *service.AuthService
	Hub        *ws.Hub
	DB         Pinger
	Queue      ConnChecker
	Limits     config.Limits
	Version    string
}

// --- Health ---

// Health handles GET /health. It reports process liveness only; readiness
// is a separate probe so a restart loop cannot mask a dead dependency.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. A down database fails readiness; a down
// queue only degrades it, since ingest keeps working and the daily buckets
// catch up on the next rebuild.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "up", "nats": "up"}
	code := http.StatusOK

	if err := h.DB.Ping(r.Context()); err != nil {
		status["status"] = "unavailable"
		status["database"] = "down"
		code = http.StatusServiceUnavailable
	}
	if !h.Queue.IsConnected() {
		status["nats"] = "down"
		if status["status"] == "ok" {
			status["status"] = "degraded"
		}
	}

	writeJSON(w, code, status)
}

// --- Activity Handlers ---

// RecordActivity handles POST /api/v1/activities
func (h *Handlers) RecordActivity(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.MaxRequestBodySize, h.Activities.Record)(w, r)
}

// GetActivity handles GET /api/v1/activities/{id}
func (h *Handlers) GetActivity(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Activities.Get, "activity not found")(w, r)
}

// ListActivities handles GET /api/v1/activities
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	f, ok := activityFilter(w, r)
	if !ok {
		return
	}
	items, err := h.Activities.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err, "failed to list activities")
		return
	}
	if items == nil {
		items = []activity.Activity{}
	}
	writeJSON(w, http.StatusOK, items)
}

// RecentActivities handles GET /api/v1/activities/recent
func (h *Handlers) RecentActivities(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	items, err := h.Activities.Recent(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err, "failed to list recent activities")
		return
	}
	if items == nil {
		items = []activity.Activity{}
	}
	writeJSON(w, http.StatusOK, items)
}

// activityFilter builds an activity query filter from list query
// parameters. A malformed timestamp writes the 400 itself.
func activityFilter(w http.ResponseWriter, r *http.Request) (activity.Filter, bool) {
	f := activity.Filter{
		AgentID:  r.URL.Query().Get("agent_id"),
		TicketID: r.URL.Query().Get("ticket_id"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	}

	var err error
	if f.Start, err = queryTime(r, "start"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return f, false
	}
	if f.End, err = queryTime(r, "end"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return f, false
	}
	return f, true
}

// --- Ticket Handlers ---

// CreateTicket handles POST /api/v1/tickets
func (h *Handlers) CreateTicket(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.MaxRequestBodySize, h.Tickets.Create)(w, r)
}

// GetTicket handles GET /api/v1/tickets/{id}
func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tickets.Get, "ticket not found")(w, r)
}

// ListTickets handles GET /api/v1/tickets
func (h *Handlers) ListTickets(w http.ResponseWriter, r *http.Request) {
	status := ticket.Status(r.URL.Query().Get("status"))
	tickets, err := h.Tickets.List(r.Context(), status)
	if err != nil {
		writeDomainError(w, err, "failed to list tickets")
		return
	}
	if tickets == nil {
		tickets = []ticket.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// UpdateTicket handles PUT /api/v1/tickets/{id}
func (h *Handlers) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.Limits.MaxRequestBodySize, h.Tickets.Update, "ticket not found")(w, r)
}

// TicketStats handles GET /api/v1/tickets/{id}/stats
func (h *Handlers) TicketStats(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	totals, err := h.Tickets.Stats(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, totalsResponse{Totals: *totals, CostFormatted: FormatUSD(totals.CostUSD)})
}

// --- Agent Handlers ---

// RegisterAgent handles POST /api/v1/agents
func (h *Handlers) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.MaxRequestBodySize, h.Agents.Register)(w, r)
}

// ListAgents handles GET /api/v1/agents
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	handleList(h.Agents.List)(w, r)
}

// GetAgent handles GET /api/v1/agents/{id}
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Agents.Get, "agent not found")(w, r)
}

// AgentHeartbeat handles POST /api/v1/agents/{id}/heartbeat. The body is
// optional: a bare heartbeat only bumps last seen.
func (h *Handlers) AgentHeartbeat(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	var hb agent.Heartbeat
	if r.ContentLength != 0 {
		var ok bool
		if hb, ok = readJSON[agent.Heartbeat](w, r, h.Limits.MaxRequestBodySize); !ok {
			return
		}
	}

	a, err := h.Agents.Heartbeat(r.Context(), id, hb)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// AgentStats handles GET /api/v1/agents/{id}/stats
func (h *Handlers) AgentStats(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	if _, err := h.Agents.Get(r.Context(), id); err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}

	totals, err := h.Aggregator.Summarize(r.Context(), activity.Filter{AgentID: id})
	if err != nil {
		writeDomainError(w, err, "failed to aggregate agent costs")
		return
	}
	writeJSON(w, http.StatusOK, totalsResponse{Totals: *totals, CostFormatted: FormatUSD(totals.CostUSD)})
}
