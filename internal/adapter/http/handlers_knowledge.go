package http

import (
	"net/http"
	"strings"

	"github.com/agentdeck/agentdeck/internal/domain/knowledge"
)

// --- Knowledge Handlers ---

// ListKnowledge handles GET /api/v1/knowledge
func (h *Handlers) ListKnowledge(w http.ResponseWriter, r *http.Request) {
	handleList(h.Knowledge.List)(w, r)
}

// ReadKnowledgeDoc handles GET /api/v1/knowledge/doc. The document path
// comes in as a query parameter because it contains slashes.
func (h *Handlers) ReadKnowledgeDoc(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	doc, err := h.Knowledge.Read(r.Context(), path)
	if err != nil {
		writeDomainError(w, err, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SearchKnowledge handles GET /api/v1/knowledge/search
func (h *Handlers) SearchKnowledge(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	results, err := h.Knowledge.Search(r.Context(), query)
	if err != nil {
		writeDomainError(w, err, "search failed")
		return
	}
	if results == nil {
		results = []knowledge.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}
