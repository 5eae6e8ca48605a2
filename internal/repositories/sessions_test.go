package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/docstore"
)

func TestDocSessionStoreSaveFindAndDelete(t *testing.T) {
	store := NewDocSessionStore(docstore.NewMemoryStore(nil))
	ctx := context.Background()

	session := auth.Session{
		RefreshToken: uuid.NewString(),
		UserID:       "user-1",
		ExpiresAt:    time.Now().UTC().Add(24 * time.Hour).Truncate(time.Millisecond),
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if loaded.UserID != session.UserID || !loaded.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("unexpected session: %+v", loaded)
	}

	// Saving the same token again refreshes the record in place.
	session.ExpiresAt = session.ExpiresAt.Add(48 * time.Hour)
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("update session: %v", err)
	}
	loaded, err = store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if !loaded.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("expected refreshed expiry, got %v", loaded.ExpiresAt)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.Find(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}
