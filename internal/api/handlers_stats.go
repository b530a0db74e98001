package api

import (
	"encoding/json"
	"net/http"
)

// handleStats reports service counters: stored documents and the current
// ingest queue depth.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.CountDocuments(r.Context())
	if err != nil {
		jsonError(w, "failed to count documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents":   docs,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
