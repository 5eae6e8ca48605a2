package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/jackc/pgx/v5/pgxpool"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDocuments(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE documents"); err != nil {
		t.Fatalf("truncate documents: %v", err)
	}
}

func TestPostgresCreateGetAndConflict(t *testing.T) {
	ctx := context.Background()
	resetDocuments(t)

	store := NewPostgresStore(testPool, nil)
	col := store.Collection("profiles")

	created := time.Now().UTC().Truncate(time.Millisecond)
	fields := map[string]any{
		"user_id":    "alice",
		"username":   "alice",
		"created_at": created,
	}

	if err := col.Create(ctx, "p1", fields); err != nil {
		t.Fatalf("create document: %v", err)
	}

	if err := col.Create(ctx, "p1", fields); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate id, got %v", err)
	}

	// Same id in a different collection is a distinct document.
	if err := store.Collection("drinks").Create(ctx, "p1", map[string]any{"user_id": "alice"}); err != nil {
		t.Fatalf("create in sibling collection: %v", err)
	}

	doc, err := col.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc.Fields["username"] != "alice" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if !doc.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, doc.CreatedAt)
	}

	if _, err := col.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresListFilters(t *testing.T) {
	ctx := context.Background()
	resetDocuments(t)

	store := NewPostgresStore(testPool, nil)
	col := store.Collection("profiles")

	seed := []struct {
		id       string
		username string
		user     string
		enabled  bool
	}{
		{"p1", "Anna", "u1", true},
		{"p2", "annette", "u2", true},
		{"p3", "Bernd", "u3", false},
	}
	base := time.Now().UTC().Truncate(time.Second)
	for i, s := range seed {
		err := col.Create(ctx, s.id, map[string]any{
			"username":                   s.username,
			"user_id":                    s.user,
			"push_notifications_enabled": s.enabled,
			"created_at":                 base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("seed %s: %v", s.id, err)
		}
	}

	equal, err := col.List(ctx, Query{Filters: []Filter{Equal("user_id", "u2")}})
	if err != nil {
		t.Fatalf("equal: %v", err)
	}
	if len(equal) != 1 || equal[0].ID != "p2" {
		t.Fatalf("equal filter: %+v", equal)
	}

	boolEqual, err := col.List(ctx, Query{Filters: []Filter{Equal("push_notifications_enabled", true)}})
	if err != nil {
		t.Fatalf("bool equal: %v", err)
	}
	if len(boolEqual) != 2 {
		t.Fatalf("bool filter compares text projections: %+v", boolEqual)
	}

	prefix, err := col.List(ctx, Query{Filters: []Filter{Prefix("username", "ann")}})
	if err != nil {
		t.Fatalf("prefix: %v", err)
	}
	if len(prefix) != 2 {
		t.Fatalf("prefix is case-insensitive: %+v", prefix)
	}

	search, err := col.List(ctx, Query{Filters: []Filter{Search("username", "ern")}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(search) != 1 || search[0].ID != "p3" {
		t.Fatalf("search matches substrings: %+v", search)
	}

	in, err := col.List(ctx, Query{Filters: []Filter{In("user_id", "u1", "u3")}})
	if err != nil {
		t.Fatalf("in: %v", err)
	}
	if len(in) != 2 {
		t.Fatalf("in filter: %+v", in)
	}

	newest, err := col.List(ctx, Query{OrderNewestFirst: true, Limit: 2})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if len(newest) != 2 || newest[0].ID != "p3" || newest[1].ID != "p2" {
		t.Fatalf("expected newest first with limit, got %+v", newest)
	}
}

func TestPostgresUpdateMergesAndDeletes(t *testing.T) {
	ctx := context.Background()
	resetDocuments(t)

	store := NewPostgresStore(testPool, nil)
	col := store.Collection("notifications")

	err := col.Create(ctx, "n1", map[string]any{
		"recipient_id": "bob",
		"title":        "Prost",
		"read":         false,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := col.Update(ctx, "n1", map[string]any{"read": true}); err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, err := col.Get(ctx, "n1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Fields["read"] != true || doc.Fields["title"] != "Prost" {
		t.Fatalf("expected merged fields, got %+v", doc.Fields)
	}

	if err := col.Update(ctx, "missing", map[string]any{"read": true}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing document, got %v", err)
	}

	if err := col.Delete(ctx, "n1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := col.Delete(ctx, "n1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresPublishesChanges(t *testing.T) {
	ctx := context.Background()
	resetDocuments(t)

	publisher := &recordingPublisher{}
	store := NewPostgresStore(testPool, publisher)
	col := store.Collection("friendships")

	if err := col.Create(ctx, "f1", map[string]any{"status": "pending"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := col.Update(ctx, "f1", map[string]any{"status": "accepted"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(publisher.events) != 2 {
		t.Fatalf("expected two events, got %d", len(publisher.events))
	}
	if publisher.events[0].Action != ActionCreate || publisher.events[1].Action != ActionUpdate {
		t.Fatalf("unexpected event sequence: %+v", publisher.events)
	}
	if got := publisher.events[1].Document.Fields["status"]; got != "accepted" {
		t.Fatalf("update event carries merged fields, got %v", got)
	}
}
