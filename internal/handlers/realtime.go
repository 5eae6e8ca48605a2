package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/logging"
	"github.com/prostly/backend/internal/realtime"
)

// RealtimeHandler upgrades authenticated requests to WebSocket connections
// and attaches them to the hub.
type RealtimeHandler struct {
	Hub      *realtime.Hub
	Upgrader websocket.Upgrader
}

// Connect handles GET /api/v1/realtime.
func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if h.Hub == nil {
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "realtime unavailable"})
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an error response.
		logger.Warn("websocket upgrade failed", "userId", actor, "error", err)
		return
	}

	client := realtime.NewClient(h.Hub, conn, actor, logger)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
