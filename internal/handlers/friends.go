package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/friends"
	"github.com/prostly/backend/internal/logging"
	"github.com/prostly/backend/internal/repositories"
)

// FriendHandler exposes the friendship workflow over HTTP. Every endpoint
// requires an authenticated actor resolved by the middleware.
type FriendHandler struct {
	Friends FriendService
	Limiter RateLimiter
}

// Request handles POST /api/v1/friends/request.
func (h FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
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

	var req friendRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "userId is required"})
		return
	}

	friendship, err := h.Friends.SendRequest(ctx, actor, req.UserID)
	if err != nil {
		h.respondError(w, r, err, "send friend request")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{"friendship": friendship})
}

// Respond handles POST /api/v1/friends/respond, accepting or declining a
// pending request.
func (h FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
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

	var req friendRespondPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.FriendshipID = strings.TrimSpace(req.FriendshipID)
	req.Decision = strings.TrimSpace(strings.ToLower(req.Decision))
	if req.FriendshipID == "" || req.Decision == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "friendshipId and decision are required"})
		return
	}

	friendship, err := h.Friends.Respond(ctx, actor, req.FriendshipID, req.Decision)
	if err != nil {
		h.respondError(w, r, err, "respond to friend request")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"friendship": friendship})
}

// List handles GET /api/v1/friends, returning accepted friends as profiles.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
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

	profiles, err := h.Friends.Friends(ctx, actor)
	if err != nil {
		h.respondError(w, r, err, "list friends")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"friends": profiles})
}

// Pending handles GET /api/v1/friends/requests, returning incoming pending
// requests joined with the sender's profile.
func (h FriendHandler) Pending(w http.ResponseWriter, r *http.Request) {
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

	pending, err := h.Friends.PendingIncoming(ctx, actor)
	if err != nil {
		h.respondError(w, r, err, "list pending requests")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"requests": pending})
}

// Search handles GET /api/v1/users/search?q=term.
func (h FriendHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if !allowRequest(h.Limiter, r, "search") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	actor, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		respondJSON(ctx, w, http.StatusOK, map[string]any{"users": []any{}})
		return
	}

	profiles, err := h.Friends.SearchUsers(ctx, actor, term)
	if err != nil {
		h.respondError(w, r, err, "search users")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"users": profiles})
}

func (h FriendHandler) respondError(w http.ResponseWriter, r *http.Request, err error, action string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, friends.ErrSelfRequest):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "cannot befriend yourself"})
	case errors.Is(err, friends.ErrInvalidDecision):
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "decision must be accepted or declined"})
	case errors.Is(err, friends.ErrFriendshipExists):
		respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "friendship already exists"})
	case errors.Is(err, friends.ErrNotPending):
		respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "request is no longer pending"})
	case errors.Is(err, friends.ErrNotRecipient):
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the recipient can respond"})
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		logging.FromContext(ctx).Error("friend workflow failed", "action", action, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

type friendRequestPayload struct {
	UserID string `json:"userId"`
}

type friendRespondPayload struct {
	FriendshipID string `json:"friendshipId"`
	Decision     string `json:"decision"`
}
