package scam

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/raushan-in/dapa/internal/ratelimit"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// HandleChat — one conversation turn over HTTP.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserMessage      string  `json:"user_message"`
		ThreadID         *string `json:"thread_id"`
		ReporterIdentity *string `json:"reporter_identity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(payload.UserMessage) == "" {
		writeError(w, http.StatusBadRequest, "missing user_message")
		return
	}

	req := &TurnRequest{UserMessage: payload.UserMessage}
	if payload.ThreadID != nil {
		req.ThreadID = *payload.ThreadID
	}
	if payload.ReporterIdentity != nil {
		req.ReporterIdentity = *payload.ReporterIdentity
	}

	resp, err := h.svc.HandleTurn(r.Context(), req)
	if err != nil {
		var limitErr *ratelimit.LimitError
		if errors.As(err, &limitErr) {
			writeError(w, http.StatusTooManyRequests, fmt.Sprintf(
				"Rate limit exceeded. Only %d requests allowed per %s.",
				limitErr.Limit, limitErr.Window,
			))
			return
		}
		log.Printf("[handler] turn error: %v", err)
		writeError(w, http.StatusInternalServerError, "Unexpected error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"response_message": resp.ResponseMessage,
		"responder":        string(resp.Responder),
		"thread_id":        resp.ThreadID,
	})
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
