package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agentdeck/agentdeck/internal/domain/apikey"
	"github.com/agentdeck/agentdeck/internal/middleware"
)

// apiTimeout bounds every /api/v1 request. The live socket and health
// probes stay exempt: /ws connections are long-lived on purpose.
const apiTimeout = 30 * time.Second

// MountRoutes registers all API routes on the given chi router. Handlers
// run behind whatever middleware the caller has installed; the only
// middleware applied here is per-group scope enforcement and the API
// request timeout.
func MountRoutes(r chi.Router, h *Handlers) {
	// Ops endpoints, exempt from authentication.
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)

	// Live event feed. Browsers cannot set headers on WebSocket upgrades,
	// so /ws authenticates via ?token= in the Auth middleware.
	r.Get("/ws", h.Hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(apiTimeout))

		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})

		// Read surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireScope(apikey.ScopeRead))

			r.Get("/activities", h.ListActivities)
			r.Get("/activities/recent", h.RecentActivities)
			r.Get("/activities/{id}", h.GetActivity)

			r.Get("/cost/kpis", h.GetKPIs)
			r.Get("/cost/summary", h.CostSummary)
			r.Get("/cost/series", h.CostSeries)
			r.Get("/cost/forecast", h.GetForecast)
			r.Get("/cost/anomalies", h.ListAnomalies)

			r.Get("/tickets", h.ListTickets)
			r.Get("/tickets/{id}", h.GetTicket)
			r.Get("/tickets/{id}/stats", h.TicketStats)

			r.Get("/agents", h.ListAgents)
			r.Get("/agents/{id}", h.GetAgent)
			r.Get("/agents/{id}/stats", h.AgentStats)

			r.Get("/knowledge", h.ListKnowledge)
			r.Get("/knowledge/doc", h.ReadKnowledgeDoc)
			r.Get("/knowledge/search", h.SearchKnowledge)

			r.Get("/settings", h.ListSettings)
			r.Get("/settings/{namespace}/{key}", h.GetSetting)
			r.Get("/budget", h.GetBudget)
			r.Get("/pricing", h.ListPricing)
		})

		// Ingest surface: what agents themselves write.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireScope(apikey.ScopeIngest))

			r.Post("/activities", h.RecordActivity)
			r.Post("/agents", h.RegisterAgent)
			r.Post("/agents/{id}/heartbeat", h.AgentHeartbeat)
			r.Post("/tickets", h.CreateTicket)
			r.Put("/tickets/{id}", h.UpdateTicket)
		})

		// Admin surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireScope(apikey.ScopeAdmin))

			r.Put("/budget", h.UpdateBudget)
			r.Put("/pricing", h.UpsertPricing)
			r.Delete("/pricing/{model}", h.DeletePricing)
			r.Put("/settings", h.UpdateSettings)

			r.Post("/auth/api-keys", h.CreateAPIKey)
			r.Get("/auth/api-keys", h.ListAPIKeys)
			r.Delete("/auth/api-keys/{id}", h.RevokeAPIKey)

			r.Post("/admin/rebuild-buckets", h.RebuildBuckets)
		})
	})
}
