package realtime

import (
	"log/slog"
	"sync"

	"github.com/prostly/backend/internal/docstore"
)

// Bus receives store change events and fans them out to subscribers. It never
// blocks the store: a subscriber with a full buffer drops events.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	logger *slog.Logger
}

// NewBus constructs an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subs: make(map[int]chan Event), logger: logger}
}

// Publish implements docstore.Publisher. Changes without a mapped event kind
// (internal collections) are dropped silently.
func (b *Bus) Publish(change docstore.ChangeEvent) {
	event, err := Decode(change)
	if err != nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("realtime subscriber lagging, dropping event", "subscriber", id, "event", event.Kind.String())
		}
	}
}

// Subscribe registers a consumer and returns its event channel plus an
// unsubscribe handle. The channel is closed on unsubscribe.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}
