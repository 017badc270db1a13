package api

import (
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/ashureev/hauslink/internal/client"
	"github.com/ashureev/hauslink/internal/connection"
	"github.com/ashureev/hauslink/internal/domain"
	"github.com/ashureev/hauslink/internal/engine"
	"github.com/go-chi/chi/v5"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RegisterRoutes registers the control routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/reconnect", h.Reconnect)
		r.Post("/focus", h.Focus)
		r.Delete("/notifications/{id}", h.DismissNotification)
		r.Post("/approvals/{id}", h.Decide)
		r.Post("/choices", h.ParseChoices)
	})
}

// GetState returns the connection, auth gate and notification state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.engine.Snapshot())
}

// Login submits a credential from the auth gate.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.engine.SubmitCredential(r.Context(), req.Token)
	switch {
	case errors.Is(err, connection.ErrEmptyCredential):
		Error(w, http.StatusBadRequest, "token is required")
		return
	case errors.Is(err, connection.ErrClosed):
		Error(w, http.StatusServiceUnavailable, "shutting down")
		return
	case err != nil:
		h.logger.Error("Login failed", "error", err)
		Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	JSON(w, http.StatusOK, h.engine.Snapshot())
}

// Logout clears the credential.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Logout(r.Context()); err != nil && !errors.Is(err, connection.ErrClosed) {
		h.logger.Error("Logout failed", "error", err)
		Error(w, http.StatusInternalServerError, "logout failed")
		return
	}
	JSON(w, http.StatusOK, h.engine.Snapshot())
}

// Reconnect skips the remaining backoff delay.
func (h *Handler) Reconnect(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Reconnect(r.Context())
	switch {
	case errors.Is(err, connection.ErrNoCredential):
		Error(w, http.StatusConflict, "no_credential")
		return
	case errors.Is(err, connection.ErrClosed):
		Error(w, http.StatusServiceUnavailable, "shutting down")
		return
	case err != nil:
		h.logger.Error("Reconnect failed", "error", err)
		Error(w, http.StatusInternalServerError, "reconnect failed")
		return
	}
	JSON(w, http.StatusAccepted, h.engine.Snapshot())
}

// Focus sets the session notifications are scoped to. An empty session_id clears it.
func (h *Handler) Focus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := strings.TrimSpace(req.SessionID)
	if id != "" && !sessionIDPattern.MatchString(id) {
		Error(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	h.engine.Focus(id)
	JSON(w, http.StatusOK, map[string]string{"focused_session": id})
}

// DismissNotification removes a visible notification.
func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Dismiss(chi.URLParam(r, "id")) {
		Error(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Decide forwards an approval decision to the dashboard server.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var req client.Decision
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Decision != client.DecisionAllow && req.Decision != client.DecisionDeny {
		Error(w, http.StatusBadRequest, "decision must be allow or deny")
		return
	}

	id := chi.URLParam(r, "id")
	err := h.engine.Decide(r.Context(), id, req.Decision, req.Message)
	switch {
	case errors.Is(err, engine.ErrMissingApprovalID):
		Error(w, http.StatusBadRequest, "approval id is required")
		return
	case errors.Is(err, connection.ErrNoCredential):
		Error(w, http.StatusUnauthorized, "no_credential")
		return
	case errors.Is(err, connection.ErrClosed):
		Error(w, http.StatusServiceUnavailable, "shutting down")
		return
	case err != nil:
		h.logger.Error("Decision failed", "approval_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "decision failed")
		return
	}
	JSON(w, http.StatusAccepted, map[string]string{"approval_id": id, "decision": req.Decision})
}

// ParseChoices extracts answer choices from a plain-text prompt body.
func (h *Handler) ParseChoices(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		Error(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}
	found := h.engine.Choices(string(body))
	if found == nil {
		found = []domain.Choice{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"choices": found})
}
