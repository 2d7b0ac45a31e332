package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleResolveStats(w http.ResponseWriter, r *http.Request) {
	docs := s.project.Documents()
	chunks := 0
	for _, d := range docs {
		chunks += d.Chunks
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"documents":   len(docs),
		"chunks":      chunks,
		"queue_depth": s.orchestrator.QueueDepth(),
		"latency":     s.project.Latency().Snapshot(),
	})
}
