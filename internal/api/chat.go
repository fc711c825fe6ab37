package api

import (
	"encoding/json"
	"net/http"

	"github.com/valet-ai/valet/internal/llm"
)

// historyEntry is one prior turn supplied by the client.
type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string         `json:"message"`
	History []historyEntry `json:"history,omitempty"`
	Image   string         `json:"image,omitempty"`
}

type chatResponse struct {
	Content   string `json:"content"`
	Rounds    int    `json:"rounds"`
	ToolCalls int    `json:"tool_calls"`
	Exhausted bool   `json:"exhausted,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "message is required", nil)
		return
	}

	history := make([]llm.Message, 0, len(req.History))
	for _, h := range req.History {
		if h.Role != llm.RoleUser && h.Role != llm.RoleAssistant {
			s.writeError(w, http.StatusBadRequest, "history roles must be user or assistant", nil)
			return
		}
		history = append(history, llm.Message{Role: h.Role, Content: h.Content})
	}

	result, err := s.processor.Process(r.Context(), req.Message, history, req.Image)
	if err != nil {
		s.logger.Error("chat failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "assistant unavailable", err)
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{
		Content:   result.Content,
		Rounds:    result.Rounds,
		ToolCalls: result.ToolCalls,
		Exhausted: result.Exhausted,
	})
}
