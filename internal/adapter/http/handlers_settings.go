package http

import (
	"net/http"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/budget"
	"github.com/agentdeck/agentdeck/internal/domain/pricing"
	"github.com/agentdeck/agentdeck/internal/domain/settings"
)

// --- Settings Handlers ---

// ListSettings handles GET /api/v1/settings. A namespace query parameter
// narrows the listing; absent returns every namespace.
func (h *Handlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	namespace := r.URL.Query().Get("namespace")
	rows, err := h.Settings.List(r.Context(), namespace)
	if err != nil {
		writeDomainError(w, err, "failed to list settings")
		return
	}
	if rows == nil {
		rows = []settings.Setting{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetSetting handles GET /api/v1/settings/{namespace}/{key}
func (h *Handlers) GetSetting(w http.ResponseWriter, r *http.Request) {
	namespace := urlParam(r, "namespace")
	key := urlParam(r, "key")

	s, err := h.Settings.Get(r.Context(), namespace, key)
	if err != nil {
		writeDomainError(w, err, "setting not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateSettings handles PUT /api/v1/settings, upserting a batch of values
// into one namespace.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[settings.UpdateRequest](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}

	if err := h.Settings.Update(r.Context(), req); err != nil {
		writeDomainError(w, err, "failed to update settings")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Budget Handlers ---

// budgetResponse is the wire shape of one monthly budget.
type budgetResponse struct {
	Month      string    `json:"month"`
	TotalUSD   float64   `json:"total_usd"`
	Currency   string    `json:"currency"`
	Configured bool      `json:"configured"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toBudgetResponse(c *budget.Config) budgetResponse {
	return budgetResponse{
		Month:      c.MarshalMonth(),
		TotalUSD:   c.TotalUSD(),
		Currency:   c.Currency,
		Configured: c.Configured(),
		UpdatedAt:  c.UpdatedAt,
	}
}

// GetBudget handles GET /api/v1/budget. A month query parameter in 2006-01
// form selects a specific month; absent means the current one.
func (h *Handlers) GetBudget(w http.ResponseWriter, r *http.Request) {
	at := time.Now().UTC()
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := time.Parse(budget.MonthFormat, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be formatted as "+budget.MonthFormat)
			return
		}
		at = m
	}

	cfg, err := h.Budgets.Get(r.Context(), at)
	if err != nil {
		writeDomainError(w, err, "failed to load budget")
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(cfg))
}

// UpdateBudget handles PUT /api/v1/budget
func (h *Handlers) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[budget.UpdateRequest](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}

	cfg, err := h.Budgets.Update(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "failed to update budget")
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(cfg))
}

// --- Pricing Handlers ---

// ListPricing handles GET /api/v1/pricing
func (h *Handlers) ListPricing(w http.ResponseWriter, r *http.Request) {
	handleList(h.Pricing.List)(w, r)
}

// UpsertPricing handles PUT /api/v1/pricing
func (h *Handlers) UpsertPricing(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[pricing.Entry](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}

	e, err := h.Pricing.Upsert(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "failed to upsert pricing")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeletePricing handles DELETE /api/v1/pricing/{model}
func (h *Handlers) DeletePricing(w http.ResponseWriter, r *http.Request) {
	model := urlParam(r, "model")
	if err := h.Pricing.Delete(r.Context(), model); err != nil {
		writeDomainError(w, err, "pricing row not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
