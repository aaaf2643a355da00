package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"model":       s.cfg.GeminiModel,
		"llm":         s.orchestrator.LLMStats().Snapshot(),
		"cache":       s.orchestrator.Cache().Stats(),
	})
}
