package http

import (
	"net/http"
)

// --- API Key Handlers ---

// CreateAPIKey handles POST /api/v1/auth/api-keys. The plaintext key
// appears in this response and nowhere else.
func (h *Handlers) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.MaxRequestBodySize, h.Auth.CreateKey)(w, r)
}

// ListAPIKeys handles GET /api/v1/auth/api-keys
func (h *Handlers) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	handleList(h.Auth.List)(w, r)
}

// RevokeAPIKey handles DELETE /api/v1/auth/api-keys/{id}
func (h *Handlers) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Auth.Revoke, "api key not found")(w, r)
}

// --- Admin Handlers ---

// RebuildBuckets handles POST /api/v1/admin/rebuild-buckets. It recomputes
// every daily bucket from the activity record set, which also clears any
// lag accumulated while the queue was down.
func (h *Handlers) RebuildBuckets(w http.ResponseWriter, r *http.Request) {
	folded, err := h.Tally.Rebuild(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"activities_folded": folded})
}
