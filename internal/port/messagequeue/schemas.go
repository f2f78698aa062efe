package messagequeue

import "time"

// ActivityRecordedPayload is the schema for activities.recorded messages.
// It mirrors the stored usage record so the tally consumer can fold it
// into the daily buckets without a database read.
type ActivityRecordedPayload struct {
	ActivityID     string    `json:"activity_id"`
	AgentID        string    `json:"agent_id"`
	TicketID       string    `json:"ticket_id,omitempty"`
	Model          string    `json:"model"`
	InputTokens    int64     `json:"input_tokens"`
	OutputTokens   int64     `json:"output_tokens"`
	CostUSDMicro   *int64    `json:"cost_usd_micro,omitempty"`
	PriceEstimated bool      `json:"price_estimated"`
	CreatedAt      time.Time `json:"created_at"`
}

// AgentHeartbeatPayload is the schema for agents.heartbeat messages.
type AgentHeartbeatPayload struct {
	AgentID string    `json:"agent_id"`
	Model   string    `json:"model,omitempty"`
	SeenAt  time.Time `json:"seen_at"`
}
