package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prostly/backend/internal/docstore"
)

func newTestClient(hub *Hub, userID string) *Client {
	return NewClient(hub, nil, userID, nil)
}

func receiveMessage(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func expectSilence(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.send:
		t.Fatalf("expected no message, got %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRoutesNotificationToRecipientOnly(t *testing.T) {
	hub := NewHub(nil)
	events := make(chan Event, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, events)

	bob := newTestClient(hub, "bob")
	carol := newTestClient(hub, "carol")
	hub.Register(bob)
	hub.Register(carol)

	waitForUsers(t, hub, 2)

	events <- Event{
		Kind:    EventNotificationCreated,
		Channel: "collections.notifications.documents",
		Document: docstore.Document{
			ID:     "n1",
			Fields: map[string]any{"recipient_id": "bob", "title": "Prost"},
		},
	}

	msg := receiveMessage(t, bob)
	if msg.Event != "notification.create" {
		t.Fatalf("unexpected event name %q", msg.Event)
	}
	if msg.Payload["id"] != "n1" || msg.Payload["title"] != "Prost" {
		t.Fatalf("unexpected payload: %+v", msg.Payload)
	}

	expectSilence(t, carol)
}

func TestHubBroadcastsDrinkPosts(t *testing.T) {
	hub := NewHub(nil)
	events := make(chan Event, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, events)

	bob := newTestClient(hub, "bob")
	carol := newTestClient(hub, "carol")
	hub.Register(bob)
	hub.Register(carol)

	waitForUsers(t, hub, 2)

	events <- Event{
		Kind:    EventDrinkPostCreated,
		Channel: "collections.drinks.documents",
		Document: docstore.Document{
			ID:     "d1",
			Fields: map[string]any{"user_id": "alice", "drink_name": "Helles"},
		},
	}

	for _, client := range []*Client{bob, carol} {
		msg := receiveMessage(t, client)
		if msg.Event != "drink.create" {
			t.Fatalf("unexpected event name %q", msg.Event)
		}
	}
}

func TestHubFriendshipReachesBothParties(t *testing.T) {
	hub := NewHub(nil)
	events := make(chan Event, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, events)

	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	carol := newTestClient(hub, "carol")
	hub.Register(alice)
	hub.Register(bob)
	hub.Register(carol)

	waitForUsers(t, hub, 3)

	events <- Event{
		Kind:    EventFriendshipUpdated,
		Channel: "collections.friendships.documents",
		Document: docstore.Document{
			ID:     "f1",
			Fields: map[string]any{"requester_id": "alice", "recipient_id": "bob", "status": "accepted"},
		},
	}

	receiveMessage(t, alice)
	receiveMessage(t, bob)
	expectSilence(t, carol)
}

func waitForUsers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ConnectedUsers() < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d connected users, have %d", want, hub.ConnectedUsers())
		}
		time.Sleep(time.Millisecond)
	}
}
