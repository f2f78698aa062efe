package http

import (
	"net/http"

	"github.com/agentdeck/agentdeck/internal/domain/cost"
)

// --- Cost Endpoints ---

// totalsResponse wraps aggregate totals with a display-formatted cost.
type totalsResponse struct {
	cost.Totals
	CostFormatted string `json:"cost_formatted"`
}

// GetKPIs handles GET /api/v1/cost/kpis
func (h *Handlers) GetKPIs(w http.ResponseWriter, r *http.Request) {
	k, err := h.KPIs.KPIs(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

// CostSummary handles GET /api/v1/cost/summary. The agent_id, ticket_id,
// start and end query parameters scope the reduction; none means
// everything ever recorded.
func (h *Handlers) CostSummary(w http.ResponseWriter, r *http.Request) {
	f, ok := activityFilter(w, r)
	if !ok {
		return
	}

	totals, err := h.Aggregator.Summarize(r.Context(), f)
	if err != nil {
		writeDomainError(w, err, "failed to aggregate costs")
		return
	}
	writeJSON(w, http.StatusOK, totalsResponse{Totals: *totals, CostFormatted: FormatUSD(totals.CostUSD)})
}

// CostSeries handles GET /api/v1/cost/series
func (h *Handlers) CostSeries(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	series, err := h.Aggregator.Series(r.Context(), days)
	if err != nil {
		writeDomainError(w, err, "failed to load daily series")
		return
	}
	if series == nil {
		series = []cost.DailyBucket{}
	}
	writeJSON(w, http.StatusOK, series)
}

// GetForecast handles GET /api/v1/cost/forecast
func (h *Handlers) GetForecast(w http.ResponseWriter, r *http.Request) {
	f, err := h.Forecasts.Forecast(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to build forecast")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// ListAnomalies handles GET /api/v1/cost/anomalies. An oversized days
// window is rejected, not clamped.
func (h *Handlers) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 0)
	anomalies, err := h.Anomalies.Detect(r.Context(), days)
	if err != nil {
		writeDomainError(w, err, "failed to detect anomalies")
		return
	}
	if anomalies == nil {
		anomalies = []cost.Anomaly{}
	}
	writeJSON(w, http.StatusOK, anomalies)
}
