package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		respondError(w, http.StatusServiceUnavailable, "advisor not configured")
		return
	}

	now := time.Now()
	req := struct {
		Question string `json:"question"`
		Year     int    `json:"year"`
		Month    int    `json:"month"`
	}{Year: now.Year(), Month: int(now.Month())}
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusUnprocessableEntity, "question is required")
		return
	}
	if req.Month < 1 || req.Month > 12 {
		respondError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	answer, err := s.advisor.Ask(r.Context(), req.Question, req.Year, req.Month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Advisor request failed",
			"error", err,
			"year", req.Year,
			"month", req.Month)
		respondError(w, http.StatusBadGateway, "advisor unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.store.ListChatMessages(r.Context())
	if err != nil {
		respondStoreError(w, r, err, "chat history")
		return
	}
	if history == nil {
		history = []core.ChatMessage{}
	}
	respondJSON(w, http.StatusOK, history)
}
