package realtime

import (
	"errors"
	"testing"

	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/repositories"
)

func TestDecodeMapsCollectionsToKinds(t *testing.T) {
	cases := []struct {
		collection string
		action     docstore.Action
		want       EventKind
	}{
		{repositories.CollectionProfiles, docstore.ActionCreate, EventProfileCreated},
		{repositories.CollectionProfiles, docstore.ActionUpdate, EventProfileUpdated},
		{repositories.CollectionFriendships, docstore.ActionCreate, EventFriendshipCreated},
		{repositories.CollectionFriendships, docstore.ActionUpdate, EventFriendshipUpdated},
		{repositories.CollectionNotifications, docstore.ActionCreate, EventNotificationCreated},
		{repositories.CollectionNotifications, docstore.ActionUpdate, EventNotificationUpdated},
		{repositories.CollectionDrinks, docstore.ActionCreate, EventDrinkPostCreated},
	}

	for _, tc := range cases {
		event, err := Decode(docstore.ChangeEvent{
			Collection: tc.collection,
			Action:     tc.action,
			Document:   docstore.Document{ID: "d1"},
		})
		if err != nil {
			t.Fatalf("decode %s: %v", tc.collection, err)
		}
		if event.Kind != tc.want {
			t.Fatalf("collection %s action %v: expected %v got %v", tc.collection, tc.action, tc.want, event.Kind)
		}
	}
}

func TestDecodeRejectsInternalCollections(t *testing.T) {
	for _, collection := range []string{repositories.CollectionAccounts, repositories.CollectionSessions} {
		_, err := Decode(docstore.ChangeEvent{Collection: collection, Action: docstore.ActionCreate})
		if !errors.Is(err, ErrUnknownChannel) {
			t.Fatalf("expected ErrUnknownChannel for %s, got %v", collection, err)
		}
	}
}

func TestAudienceRouting(t *testing.T) {
	notification := Event{
		Kind:     EventNotificationCreated,
		Document: docstore.Document{Fields: map[string]any{"recipient_id": "bob"}},
	}
	users, broadcast := Audience(notification)
	if broadcast || len(users) != 1 || users[0] != "bob" {
		t.Fatalf("notification audience: users=%v broadcast=%v", users, broadcast)
	}

	friendship := Event{
		Kind:     EventFriendshipUpdated,
		Document: docstore.Document{Fields: map[string]any{"requester_id": "alice", "recipient_id": "bob"}},
	}
	users, broadcast = Audience(friendship)
	if broadcast || len(users) != 2 {
		t.Fatalf("friendship audience: users=%v broadcast=%v", users, broadcast)
	}

	drink := Event{Kind: EventDrinkPostCreated, Document: docstore.Document{Fields: map[string]any{"user_id": "alice"}}}
	users, broadcast = Audience(drink)
	if !broadcast || len(users) != 0 {
		t.Fatalf("drink audience: users=%v broadcast=%v", users, broadcast)
	}

	profile := Event{
		Kind:     EventProfileUpdated,
		Document: docstore.Document{Fields: map[string]any{"user_id": "alice"}},
	}
	users, broadcast = Audience(profile)
	if broadcast || len(users) != 1 || users[0] != "alice" {
		t.Fatalf("profile audience: users=%v broadcast=%v", users, broadcast)
	}
}
