package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/friends"
	"github.com/prostly/backend/internal/logging"
	"github.com/prostly/backend/internal/notifications"
	"github.com/prostly/backend/internal/repositories"
)

// NotificationHandler exposes the notification inbox and the broadcast
// endpoint used by clients to ping all friends at once.
type NotificationHandler struct {
	Notifications NotificationService
	Friends       FriendService
}

// List handles GET /api/v1/notifications.
func (h NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	items, err := h.Notifications.List(ctx, actor, queryLimit(r))
	if err != nil {
		logging.FromContext(ctx).Error("list notifications failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load notifications"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"notifications": items})
}

// MarkRead handles POST /api/v1/notifications/read.
func (h NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req markReadPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.NotificationID = strings.TrimSpace(req.NotificationID)
	if req.NotificationID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "notificationId is required"})
		return
	}

	err := h.Notifications.MarkRead(ctx, actor, req.NotificationID)
	switch {
	case err == nil:
		respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "read"})
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "notification not found"})
	case errors.Is(err, notifications.ErrNotRecipient):
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "notification belongs to another user"})
	default:
		logging.FromContext(ctx).Error("mark notification read failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update notification"})
	}
}

// Broadcast handles POST /api/v1/notifications/broadcast, sending a custom
// message to every friend with notifications enabled.
func (h NotificationHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req broadcastPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if req.Title == "" || req.Body == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title and body are required"})
		return
	}

	result, err := h.Friends.NotifyFriends(ctx, actor, req.Title, req.Body)
	switch {
	case err == nil:
		respondJSON(ctx, w, http.StatusOK, map[string]any{"attempted": result.Attempted, "notified": result.Succeeded})
	case errors.Is(err, friends.ErrNoRecipients):
		respondJSON(ctx, w, http.StatusOK, map[string]any{"attempted": 0, "notified": 0})
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "profile not found"})
	default:
		logging.FromContext(ctx).Error("broadcast notification failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to notify friends"})
	}
}

// Settings handles POST /api/v1/profile/notifications, toggling push
// notifications on the actor's profile.
func (h NotificationHandler) Settings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Enabled == nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
		return
	}

	profile, err := h.Notifications.UpdateSettings(ctx, actor, *req.Enabled)
	switch {
	case err == nil:
		respondJSON(ctx, w, http.StatusOK, map[string]any{"profile": profile})
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "profile not found"})
	default:
		logging.FromContext(ctx).Error("update notification settings failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update settings"})
	}
}

type markReadPayload struct {
	NotificationID string `json:"notificationId"`
}

type broadcastPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type settingsPayload struct {
	Enabled *bool `json:"enabled"`
}
