package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/madhusudhankonda/ifi-chatbot/internal/middleware"
	"github.com/madhusudhankonda/ifi-chatbot/internal/stream"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Answer streams a chat response. The citation envelope and any error
// body are mutually exclusive: once the first byte of the envelope is
// written the response cannot change status, so failures after that
// point only terminate the stream.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"sessionId"`
		UserID    string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	if req.Message == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Message is required", http.StatusBadRequest)
		return
	}
	if req.SessionID != "" {
		if _, err := uuid.Parse(req.SessionID); err != nil {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid session id", http.StatusBadRequest)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	framer := stream.NewFramer(w)
	if err := h.service.Answer(r.Context(), req.SessionID, req.UserID, req.Message, framer); err != nil {
		slog.ErrorContext(r.Context(), "chat turn failed", "error", err, "session_id", req.SessionID)
		// Headers may already be out; attempting a JSON error body after
		// streamed bytes would corrupt the stream, so only the pre-stream
		// failure path gets a status code.
		if !framer.Started() {
			h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if _, err := uuid.Parse(sessionID); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Invalid session id", http.StatusBadRequest)
		return
	}

	messages, err := h.service.History(r.Context(), sessionID)
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	if messages == nil {
		messages = []Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": messages,
		"meta": map[string]int{"count": len(messages)},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
