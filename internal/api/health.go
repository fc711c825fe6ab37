package api

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
}

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleReady reports readiness, including the backing store when one
// is configured.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "database unreachable", err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ready"})
}
