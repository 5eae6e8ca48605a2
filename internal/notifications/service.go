// Package notifications covers the read side of notification documents and
// the per-user delivery preference.
package notifications

import (
	"context"
	"errors"

	"github.com/prostly/backend/internal/models"
)

// ErrNotRecipient indicates a user tried to touch a notification addressed to
// someone else.
var ErrNotRecipient = errors.New("notification belongs to another user")

// Store captures the notification persistence the read path needs.
type Store interface {
	FindByID(ctx context.Context, id string) (models.Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// ProfileStore captures the profile mutation behind the settings toggle.
type ProfileStore interface {
	FindByUser(ctx context.Context, userID string) (models.UserProfile, error)
	SetNotificationsEnabled(ctx context.Context, profileID string, enabled bool) error
}

// defaultListLimit bounds the notification list when the caller passes none.
const defaultListLimit = 50

// Service exposes the notification read path.
type Service struct {
	store    Store
	profiles ProfileStore
}

// NewService wires the read path over its stores.
func NewService(store Store, profiles ProfileStore) *Service {
	return &Service{store: store, profiles: profiles}
}

// List returns the actor's notifications, newest first, bounded.
func (s *Service) List(ctx context.Context, actor string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.store.ListForRecipient(ctx, actor, limit)
}

// MarkRead sets the read flag on one of the actor's notifications.
func (s *Service) MarkRead(ctx context.Context, actor, notificationID string) error {
	notification, err := s.store.FindByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if notification.RecipientID != actor {
		return ErrNotRecipient
	}
	return s.store.MarkRead(ctx, notificationID)
}

// UpdateSettings toggles whether the actor receives notifications.
func (s *Service) UpdateSettings(ctx context.Context, actor string, enabled bool) (models.UserProfile, error) {
	profile, err := s.profiles.FindByUser(ctx, actor)
	if err != nil {
		return models.UserProfile{}, err
	}
	if err := s.profiles.SetNotificationsEnabled(ctx, profile.ID, enabled); err != nil {
		return models.UserProfile{}, err
	}
	profile.NotificationsEnabled = enabled
	return profile, nil
}
