package handlers

import (
	"errors"
	"net/http"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/logging"
	"github.com/prostly/backend/internal/repositories"
)

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	Profiles ProfileStore
}

// Me handles GET /api/v1/profile.
func (h ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
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

	profile, err := h.Profiles.FindByUser(ctx, actor)
	switch {
	case err == nil:
		respondJSON(ctx, w, http.StatusOK, map[string]any{"profile": profile})
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "profile not found"})
	default:
		logging.FromContext(ctx).Error("load profile failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load profile"})
	}
}
