package api

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

// writeError sends an error response. The underlying cause is exposed
// only in development mode; production clients get the message alone.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string, cause error) {
	resp := errorResponse{Error: msg}
	if s.isDev && cause != nil {
		resp.Detail = cause.Error()
	}
	s.writeJSON(w, status, resp)
}
