package repositories

import (
	"context"
	"errors"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/docstore"
)

// DocSessionStore persists refresh tokens in the document store so sessions
// survive process restarts. The refresh token doubles as the document id.
type DocSessionStore struct {
	sessions docstore.Collection
}

// NewDocSessionStore constructs a session store over the document store.
func NewDocSessionStore(store docstore.Store) *DocSessionStore {
	return &DocSessionStore{sessions: store.Collection(CollectionSessions)}
}

// Save stores or refreshes a session record.
func (s *DocSessionStore) Save(ctx context.Context, session auth.Session) error {
	fields := map[string]any{
		"user_id":    session.UserID,
		"expires_at": session.ExpiresAt,
	}

	err := s.sessions.Create(ctx, session.RefreshToken, fields)
	if errors.Is(err, docstore.ErrConflict) {
		err = s.sessions.Update(ctx, session.RefreshToken, fields)
	}
	if err != nil {
		return mapStoreErr(err, "save session")
	}
	return nil
}

// Find loads a session by its refresh token.
func (s *DocSessionStore) Find(ctx context.Context, refreshToken string) (auth.Session, error) {
	doc, err := s.sessions.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, mapStoreErr(err, "select session")
	}

	userID, err := stringField(doc, "user_id")
	if err != nil {
		return auth.Session{}, err
	}
	expiresAt, err := timeField(doc, "expires_at")
	if err != nil {
		return auth.Session{}, err
	}

	return auth.Session{
		RefreshToken: refreshToken,
		UserID:       userID,
		ExpiresAt:    expiresAt,
	}, nil
}

// Delete removes a session by its refresh token.
func (s *DocSessionStore) Delete(ctx context.Context, refreshToken string) error {
	err := s.sessions.Delete(ctx, refreshToken)
	if errors.Is(err, docstore.ErrNotFound) {
		return auth.ErrSessionNotFound
	}
	if err != nil {
		return mapStoreErr(err, "delete session")
	}
	return nil
}
