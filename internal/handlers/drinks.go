package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/logging"
	"github.com/prostly/backend/internal/repositories"
)

// DrinkHandler exposes drink sharing, history, and the friend feed.
type DrinkHandler struct {
	Drinks DrinkService
}

// Share handles POST /api/v1/drinks, recording a drink post and fanning out
// notifications to the actor's friends.
func (h DrinkHandler) Share(w http.ResponseWriter, r *http.Request) {
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

	var req sharePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Emoji = strings.TrimSpace(req.Emoji)
	if req.Name == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "drink name is required"})
		return
	}

	result, err := h.Drinks.Share(ctx, actor, req.Name, req.Emoji)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		logging.FromContext(ctx).Error("share drink failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to share drink"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"post":     result.Post,
		"notified": result.FanOut.Succeeded,
	})
}

// History handles GET /api/v1/drinks, returning the actor's own posts.
func (h DrinkHandler) History(w http.ResponseWriter, r *http.Request) {
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

	posts, err := h.Drinks.History(ctx, actor, queryLimit(r))
	if err != nil {
		logging.FromContext(ctx).Error("load drink history failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"drinks": posts})
}

// Feed handles GET /api/v1/drinks/feed, returning posts from the actor and
// their accepted friends.
func (h DrinkHandler) Feed(w http.ResponseWriter, r *http.Request) {
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

	posts, err := h.Drinks.Feed(ctx, actor, queryLimit(r))
	if err != nil {
		logging.FromContext(ctx).Error("load drink feed failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load feed"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"drinks": posts})
}

func queryLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

type sharePayload struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}
