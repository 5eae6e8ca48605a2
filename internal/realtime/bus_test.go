package realtime

import (
	"testing"

	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/repositories"
)

func TestBusDeliversDecodedEvents(t *testing.T) {
	bus := NewBus(nil)
	events, unsubscribe := bus.Subscribe(4)
	defer unsubscribe()

	bus.Publish(docstore.ChangeEvent{
		Collection: repositories.CollectionDrinks,
		Action:     docstore.ActionCreate,
		Document:   docstore.Document{ID: "d1", Fields: map[string]any{"drink_name": "Helles"}},
	})

	select {
	case event := <-events:
		if event.Kind != EventDrinkPostCreated || event.Document.ID != "d1" {
			t.Fatalf("unexpected event: %+v", event)
		}
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestBusDropsUnmappedCollections(t *testing.T) {
	bus := NewBus(nil)
	events, unsubscribe := bus.Subscribe(4)
	defer unsubscribe()

	bus.Publish(docstore.ChangeEvent{
		Collection: repositories.CollectionSessions,
		Action:     docstore.ActionCreate,
		Document:   docstore.Document{ID: "s1"},
	})

	select {
	case event := <-events:
		t.Fatalf("session changes must not reach subscribers, got %+v", event)
	default:
	}
}

func TestBusDropsWhenSubscriberLags(t *testing.T) {
	bus := NewBus(nil)
	events, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	for i := 0; i < 3; i++ {
		bus.Publish(docstore.ChangeEvent{
			Collection: repositories.CollectionDrinks,
			Action:     docstore.ActionCreate,
			Document:   docstore.Document{ID: "d1"},
		})
	}

	count := 0
	for {
		select {
		case <-events:
			count++
			continue
		default:
		}
		break
	}
	if count != 1 {
		t.Fatalf("expected one buffered event, got %d", count)
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(nil)
	events, unsubscribe := bus.Subscribe(1)

	unsubscribe()
	unsubscribe()

	if _, ok := <-events; ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish(docstore.ChangeEvent{
		Collection: repositories.CollectionDrinks,
		Action:     docstore.ActionCreate,
		Document:   docstore.Document{ID: "d2"},
	})
}
