package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Event type constants for WebSocket messages. Clients may subscribe with a
// ?topics= filter naming a subset of these.
const (
	EventActivityRecorded = "activity.recorded"
	EventAgentHeartbeat   = "agent.heartbeat"
	EventTicketCreated    = "ticket.created"
	EventTicketUpdated    = "ticket.updated"
	EventBudgetUpdated    = "budget.updated"
	EventPricingUpdated   = "pricing.updated"
	EventAnomalyDetected  = "anomaly.detected"
)

// ActivityRecordedEvent is broadcast for every persisted usage record.
type ActivityRecordedEvent struct {
	ActivityID     string  `json:"activity_id"`
	AgentID        string  `json:"agent_id"`
	TicketID       string  `json:"ticket_id,omitempty"`
	Model          string  `json:"model"`
	TotalTokens    int64   `json:"total_tokens"`
	CostUSD        float64 `json:"cost_usd"`
	PriceEstimated bool    `json:"price_estimated"`
}

// AgentHeartbeatEvent is broadcast when an agent reports liveness.
type AgentHeartbeatEvent struct {
	AgentID string    `json:"agent_id"`
	Status  string    `json:"status"`
	Model   string    `json:"model,omitempty"`
	SeenAt  time.Time `json:"seen_at"`
}

// TicketEvent is broadcast when a ticket is created or changes state.
type TicketEvent struct {
	TicketID string `json:"ticket_id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Assignee string `json:"assignee,omitempty"`
}

// BudgetUpdatedEvent is broadcast when a monthly budget is configured.
type BudgetUpdatedEvent struct {
	Month    string  `json:"month"`
	TotalUSD float64 `json:"total_usd"`
	Currency string  `json:"currency"`
}

// PricingUpdatedEvent is broadcast when a pricing row changes. Deleted is
// set when the row was removed rather than upserted.
type PricingUpdatedEvent struct {
	Model   string `json:"model"`
	Deleted bool   `json:"deleted,omitempty"`
}

// AnomalyDetectedEvent is broadcast when the sweep flags a new spend anomaly.
type AnomalyDetectedEvent struct {
	Date      string  `json:"date"`
	CostUSD   float64 `json:"cost_usd"`
	Expected  float64 `json:"expected_cost_usd"`
	Deviation float64 `json:"deviation"`
	Severity  string  `json:"severity"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
