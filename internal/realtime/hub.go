package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is the JSON frame pushed to WebSocket clients.
type Message struct {
	Event   string         `json:"event"`
	Channel string         `json:"channel"`
	Payload map[string]any `json:"payload"`
}

// Hub tracks connected clients per user and routes decoded events to the
// users allowed to see them.
type Hub struct {
	mu        sync.RWMutex
	userConns map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
}

// NewHub constructs an idle hub; call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		userConns:  make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes registrations and incoming events until the context ends.
func (h *Hub) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case event, ok := <-events:
			if !ok {
				h.closeAll()
				return
			}
			h.forward(event)
		}
	}
}

// Register attaches a connected client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// ConnectedUsers reports how many distinct users hold open connections.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns)
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	conns, ok := h.userConns[client.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.userConns[client.userID] = conns
	}
	conns[client] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if conns, ok := h.userConns[client.userID]; ok {
		if _, present := conns[client]; present {
			delete(conns, client)
			close(client.send)
			if len(conns) == 0 {
				delete(h.userConns, client.userID)
			}
		}
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for _, conns := range h.userConns {
		for client := range conns {
			close(client.send)
		}
	}
	h.userConns = make(map[string]map[*Client]struct{})
	h.mu.Unlock()
}

func (h *Hub) forward(event Event) {
	payload := make(map[string]any, len(event.Document.Fields)+1)
	for k, v := range event.Document.Fields {
		payload[k] = v
	}
	payload["id"] = event.Document.ID

	data, err := json.Marshal(Message{
		Event:   event.Kind.String(),
		Channel: event.Channel,
		Payload: payload,
	})
	if err != nil {
		h.logger.Error("encode realtime message", "event", event.Kind.String(), "error", err)
		return
	}

	userIDs, broadcast := Audience(event)

	h.mu.RLock()
	defer h.mu.RUnlock()

	if broadcast {
		for _, conns := range h.userConns {
			deliver(conns, data)
		}
		return
	}
	for _, userID := range userIDs {
		deliver(h.userConns[userID], data)
	}
}

func deliver(conns map[*Client]struct{}, data []byte) {
	for client := range conns {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the frame rather than stall the hub.
		}
	}
}
