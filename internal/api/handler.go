// Package api serves the local control surface an external UI uses to drive the sync client.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/ashureev/hauslink/internal/domain"
	"github.com/ashureev/hauslink/internal/engine"
)

const maxBodyBytes = 64 << 10

// Engine is the part of the sync engine the control surface drives.
type Engine interface {
	Snapshot() engine.State
	SubmitCredential(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Focus(sessionID string)
	Dismiss(id string) bool
	Decide(ctx context.Context, approvalID, decision, message string) error
	Choices(text string) []domain.Choice
}

// Handler provides common handler utilities.
type Handler struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(e Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: e, logger: logger}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		Error(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
