package docstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingPublisher struct {
	events []ChangeEvent
}

func (p *recordingPublisher) Publish(event ChangeEvent) {
	p.events = append(p.events, event)
}

func TestMemoryCreateGetRoundTrip(t *testing.T) {
	store := NewMemoryStore(nil)
	col := store.Collection("profiles")

	created := time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC)
	err := col.Create(context.Background(), "p1", map[string]any{
		"user_id":    "alice",
		"username":   "alice",
		"created_at": created,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	doc, err := col.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Fields["username"] != "alice" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if !doc.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at field to drive document time, got %v", doc.CreatedAt)
	}
}

func TestMemoryCreateDuplicateID(t *testing.T) {
	store := NewMemoryStore(nil)
	col := store.Collection("profiles")

	if err := col.Create(context.Background(), "p1", map[string]any{"a": "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := col.Create(context.Background(), "p1", map[string]any{"a": "c"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	store := NewMemoryStore(nil)
	col := store.Collection("profiles")

	if _, err := col.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryListFilters(t *testing.T) {
	store := NewMemoryStore(nil)
	col := store.Collection("profiles")
	ctx := context.Background()

	seed := []struct {
		id       string
		username string
		user     string
	}{
		{"p1", "Anna", "u1"},
		{"p2", "annette", "u2"},
		{"p3", "Bernd", "u3"},
	}
	for i, s := range seed {
		err := col.Create(ctx, s.id, map[string]any{
			"username":   s.username,
			"user_id":    s.user,
			"created_at": time.Date(2025, 10, 3, 9, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("create %s: %v", s.id, err)
		}
	}

	equal, err := col.List(ctx, Query{Filters: []Filter{Equal("user_id", "u1")}})
	if err != nil {
		t.Fatalf("equal: %v", err)
	}
	if len(equal) != 1 || equal[0].ID != "p1" {
		t.Fatalf("equal filter: %+v", equal)
	}

	notEqual, err := col.List(ctx, Query{Filters: []Filter{NotEqual("user_id", "u1")}})
	if err != nil {
		t.Fatalf("not equal: %v", err)
	}
	if len(notEqual) != 2 {
		t.Fatalf("not-equal filter: %+v", notEqual)
	}

	prefix, err := col.List(ctx, Query{Filters: []Filter{Prefix("username", "ann")}})
	if err != nil {
		t.Fatalf("prefix: %v", err)
	}
	if len(prefix) != 2 {
		t.Fatalf("prefix is case-insensitive, expected Anna and annette: %+v", prefix)
	}

	search, err := col.List(ctx, Query{Filters: []Filter{Search("username", "nett")}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(search) != 1 || search[0].ID != "p2" {
		t.Fatalf("search matches substrings: %+v", search)
	}

	in, err := col.List(ctx, Query{Filters: []Filter{In("user_id", "u1", "u3")}})
	if err != nil {
		t.Fatalf("in: %v", err)
	}
	if len(in) != 2 {
		t.Fatalf("in filter: %+v", in)
	}
}

func TestMemoryListOrderAndLimit(t *testing.T) {
	store := NewMemoryStore(nil)
	col := store.Collection("drinks")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		err := col.Create(ctx, ids(i), map[string]any{
			"n":          i,
			"created_at": time.Date(2025, 10, 3, 9, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	docs, err := col.List(ctx, Query{OrderNewestFirst: true, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(docs))
	}
	if docs[0].ID != ids(3) || docs[1].ID != ids(2) {
		t.Fatalf("expected newest first, got %+v", docs)
	}
}

func TestMemoryUpdateMergesFields(t *testing.T) {
	store := NewMemoryStore(nil)
	col := store.Collection("notifications")
	ctx := context.Background()

	if err := col.Create(ctx, "n1", map[string]any{"title": "hi", "read": false}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := col.Update(ctx, "n1", map[string]any{"read": true}); err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, err := col.Get(ctx, "n1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Fields["read"] != true || doc.Fields["title"] != "hi" {
		t.Fatalf("expected merged fields, got %+v", doc.Fields)
	}

	if err := col.Update(ctx, "missing", map[string]any{"read": true}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryPublishesChangeEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	store := NewMemoryStore(publisher)
	col := store.Collection("friendships")
	ctx := context.Background()

	if err := col.Create(ctx, "f1", map[string]any{"status": "pending"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := col.Update(ctx, "f1", map[string]any{"status": "accepted"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := col.Delete(ctx, "f1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(publisher.events) != 3 {
		t.Fatalf("expected three events, got %d", len(publisher.events))
	}
	wantActions := []Action{ActionCreate, ActionUpdate, ActionDelete}
	for i, event := range publisher.events {
		if event.Action != wantActions[i] {
			t.Fatalf("event %d: expected action %v got %v", i, wantActions[i], event.Action)
		}
		if event.Collection != "friendships" || event.Document.ID != "f1" {
			t.Fatalf("unexpected event: %+v", event)
		}
	}
	if got := publisher.events[1].Document.Fields["status"]; got != "accepted" {
		t.Fatalf("update event carries merged fields, got %v", got)
	}
	if want := "collections.friendships.documents"; publisher.events[0].Channel() != want {
		t.Fatalf("expected channel %q, got %q", want, publisher.events[0].Channel())
	}
}

func ids(i int) string {
	return string(rune('a' + i))
}
