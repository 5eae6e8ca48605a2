// Package realtime turns document-store change events into typed events and
// delivers them to connected WebSocket clients.
package realtime

import (
	"errors"
	"fmt"

	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/repositories"
)

// EventKind enumerates the realtime events the service emits. Channel strings
// are decoded into kinds exactly once, here; consumers never match on channel
// substrings.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventProfileCreated
	EventProfileUpdated
	EventFriendshipCreated
	EventFriendshipUpdated
	EventNotificationCreated
	EventNotificationUpdated
	EventDrinkPostCreated
)

// String returns the wire name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventProfileCreated:
		return "profile.create"
	case EventProfileUpdated:
		return "profile.update"
	case EventFriendshipCreated:
		return "friendship.create"
	case EventFriendshipUpdated:
		return "friendship.update"
	case EventNotificationCreated:
		return "notification.create"
	case EventNotificationUpdated:
		return "notification.update"
	case EventDrinkPostCreated:
		return "drink.create"
	default:
		return "unknown"
	}
}

// Event is a decoded change ready for delivery.
type Event struct {
	Kind     EventKind
	Channel  string
	Document docstore.Document
}

// ErrUnknownChannel indicates a change event for a collection or action the
// realtime surface does not expose.
var ErrUnknownChannel = errors.New("realtime: no event kind for channel")

type channelKey struct {
	collection string
	action     docstore.Action
}

// eventKinds is the explicit channel-to-kind mapping. Collections absent here
// (accounts, sessions) are intentionally not exposed over realtime.
var eventKinds = map[channelKey]EventKind{
	{repositories.CollectionProfiles, docstore.ActionCreate}:      EventProfileCreated,
	{repositories.CollectionProfiles, docstore.ActionUpdate}:      EventProfileUpdated,
	{repositories.CollectionFriendships, docstore.ActionCreate}:   EventFriendshipCreated,
	{repositories.CollectionFriendships, docstore.ActionUpdate}:   EventFriendshipUpdated,
	{repositories.CollectionNotifications, docstore.ActionCreate}: EventNotificationCreated,
	{repositories.CollectionNotifications, docstore.ActionUpdate}: EventNotificationUpdated,
	{repositories.CollectionDrinks, docstore.ActionCreate}:        EventDrinkPostCreated,
}

// Decode maps a store change to a typed event.
func Decode(change docstore.ChangeEvent) (Event, error) {
	kind, ok := eventKinds[channelKey{change.Collection, change.Action}]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownChannel, change.Channel())
	}
	return Event{Kind: kind, Channel: change.Channel(), Document: change.Document}, nil
}

// Audience returns the user ids an event should be delivered to, or broadcast
// when it is visible to every connected user (drink posts, which any friend's
// feed may surface).
func Audience(event Event) (userIDs []string, broadcast bool) {
	fields := event.Document.Fields
	switch event.Kind {
	case EventProfileCreated, EventProfileUpdated:
		return fieldValues(fields, "user_id"), false
	case EventFriendshipCreated, EventFriendshipUpdated:
		return fieldValues(fields, "requester_id", "recipient_id"), false
	case EventNotificationCreated, EventNotificationUpdated:
		return fieldValues(fields, "recipient_id"), false
	case EventDrinkPostCreated:
		return nil, true
	default:
		return nil, false
	}
}

func fieldValues(fields map[string]any, keys ...string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if s, ok := fields[key].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
