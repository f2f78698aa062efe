package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
)

// Answerer answers cost questions on behalf of A2A tasks.
type Answerer interface {
	KPIs(ctx context.Context) (*cost.KPIs, error)
	Summarize(ctx context.Context, f activity.Filter) (*cost.Totals, error)
	Anomalies(ctx context.Context, days int) ([]cost.Anomaly, error)
}

// Handler serves the A2A protocol endpoints. Tasks execute synchronously
// against the analytics services, so every stored response is terminal.
type Handler struct {
	answerer Answerer
	baseURL  string
	version  string
	mu       sync.RWMutex
	tasks    map[string]*TaskResponse
}

// NewHandler creates an A2A handler.
func NewHandler(answerer Answerer, baseURL, version string) *Handler {
	return &Handler{
		answerer: answerer,
		baseURL:  baseURL,
		version:  version,
		tasks:    make(map[string]*TaskResponse),
	}
}

// MountRoutes registers A2A routes on the given chi router.
// These are mounted at the root level, not under /api/v1.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/.well-known/agent.json", h.handleAgentCard)
	r.Post("/a2a/tasks", h.handleCreateTask)
	r.Get("/a2a/tasks/{id}", h.handleGetTask)
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	card := BuildAgentCard(h.baseURL, h.version)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(card)
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, `{"error":"id is required"}`, http.StatusBadRequest)
		return
	}

	resp := h.execute(r.Context(), &req)

	h.mu.Lock()
	h.tasks[req.ID] = resp
	h.mu.Unlock()

	slog.Info("a2a task executed", "id", req.ID, "skill", req.Skill, "status", resp.Status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.RLock()
	resp, ok := h.tasks[id]
	h.mu.RUnlock()

	if !ok {
		http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) execute(ctx context.Context, req *TaskRequest) *TaskResponse {
	output, err := h.run(ctx, req)
	if err != nil {
		return &TaskResponse{ID: req.ID, Status: "failed", Error: err.Error()}
	}
	return &TaskResponse{ID: req.ID, Status: "completed", Output: output}
}

func (h *Handler) run(ctx context.Context, req *TaskRequest) (map[string]any, error) {
	switch req.Skill {
	case "cost-kpis":
		kpis, err := h.answerer.KPIs(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"kpis": kpis}, nil

	case "cost-summary":
		f, err := filterFromInput(req.Input)
		if err != nil {
			return nil, err
		}
		totals, err := h.answerer.Summarize(ctx, f)
		if err != nil {
			return nil, err
		}
		return map[string]any{"summary": totals}, nil

	case "anomalies":
		days := intInput(req.Input, "days", 30)
		anomalies, err := h.answerer.Anomalies(ctx, days)
		if err != nil {
			return nil, err
		}
		return map[string]any{"anomalies": anomalies, "count": len(anomalies)}, nil
	}
	return nil, fmt.Errorf("unknown skill %q", req.Skill)
}

func filterFromInput(input map[string]any) (activity.Filter, error) {
	f := activity.Filter{
		AgentID:  stringInput(input, "agent_id"),
		TicketID: stringInput(input, "ticket_id"),
	}
	for key, dst := range map[string]*time.Time{"start": &f.Start, "end": &f.End} {
		raw := stringInput(input, key)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = ts
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

func stringInput(input map[string]any, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

func intInput(input map[string]any, key string, fallback int) int {
	// JSON numbers decode as float64.
	if v, ok := input[key].(float64); ok && v > 0 {
		return int(v)
	}
	return fallback
}
