package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"dersplan/internal/adapters/http/perf"
)

// latencyWindow is how far back /healthz aggregates request timings.
const latencyWindow = 5 * time.Minute

// healthResponse is the JSON body of /healthz.
type healthResponse struct {
	Status      string       `json:"status"`
	Sessions    int          `json:"sessions"`
	Drafts      int          `json:"drafts,omitempty"`
	Queries     int64        `json:"queries,omitempty"`
	SlowQueries int64        `json:"slow_queries,omitempty"`
	Requests    perf.Summary `json:"requests"`
}

// draftCounter is implemented by draft stores that can report their size.
type draftCounter interface {
	Len() int
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Sessions: s.sessions.Len(),
		Requests: s.latency.Summary(s.now().Add(-latencyWindow), 5),
	}
	if dc, ok := s.deps.Drafts.(draftCounter); ok {
		resp.Drafts = dc.Len()
	}
	status := http.StatusOK
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			slog.Error("health_check_failed", "error", err)
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		stats := s.deps.DB.Stats()
		resp.Queries, resp.SlowQueries = stats.Queries, stats.Slow
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
