package repositories

import (
	"context"

	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/logging"
	"github.com/prostly/backend/internal/models"
)

// ProfileRepository defines data access for user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile models.UserProfile) error
	FindByUser(ctx context.Context, userID string) (models.UserProfile, error)
	FindByUsers(ctx context.Context, userIDs []string) ([]models.UserProfile, error)
	Search(ctx context.Context, term, excludeUserID string, limit int) ([]models.UserProfile, error)
	SetNotificationsEnabled(ctx context.Context, profileID string, enabled bool) error
}

// DocProfileRepository stores profiles in the document store.
type DocProfileRepository struct {
	profiles docstore.Collection
}

// NewDocProfileRepository constructs a profile repository over the store.
func NewDocProfileRepository(store docstore.Store) *DocProfileRepository {
	return &DocProfileRepository{profiles: store.Collection(CollectionProfiles)}
}

// Create persists a new profile record.
func (r *DocProfileRepository) Create(ctx context.Context, profile models.UserProfile) error {
	err := r.profiles.Create(ctx, profile.ID, map[string]any{
		"user_id":                    profile.UserID,
		"username":                   profile.Username,
		"email":                      profile.Email,
		"push_notifications_enabled": profile.NotificationsEnabled,
		"created_at":                 profile.CreatedAt,
	})
	return mapStoreErr(err, "insert profile")
}

// FindByUser fetches the profile owned by the given user id.
func (r *DocProfileRepository) FindByUser(ctx context.Context, userID string) (models.UserProfile, error) {
	docs, err := r.profiles.List(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Equal("user_id", userID)},
		Limit:   1,
	})
	if err != nil {
		return models.UserProfile{}, mapStoreErr(err, "select profile by user")
	}
	if len(docs) == 0 {
		return models.UserProfile{}, ErrNotFound
	}
	return decodeProfile(docs[0])
}

// FindByUsers fetches the profiles for a set of user ids. Missing ids are
// skipped, not errors; callers join against what exists.
func (r *DocProfileRepository) FindByUsers(ctx context.Context, userIDs []string) ([]models.UserProfile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	docs, err := r.profiles.List(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.In("user_id", userIDs...)},
	})
	if err != nil {
		return nil, mapStoreErr(err, "select profiles by users")
	}

	out := make([]models.UserProfile, 0, len(docs))
	for _, doc := range docs {
		profile, err := decodeProfile(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, nil
}

// Search returns profiles whose username matches the term, text match first
// with a prefix fallback, excluding the caller and capped at limit.
func (r *DocProfileRepository) Search(ctx context.Context, term, excludeUserID string, limit int) ([]models.UserProfile, error) {
	docs, err := r.profiles.List(ctx, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Search("username", term),
			docstore.NotEqual("user_id", excludeUserID),
		},
		Limit: limit,
	})
	if err != nil || len(docs) == 0 {
		if err != nil {
			logging.FromContext(ctx).Warn("profile text search failed, retrying with prefix match", "term", term, "error", err)
		}
		// Fall back to a plain prefix match when text search fails or finds
		// nothing; mirrors the lenient lookup the UI expects.
		docs, err = r.profiles.List(ctx, docstore.Query{
			Filters: []docstore.Filter{
				docstore.Prefix("username", term),
				docstore.NotEqual("user_id", excludeUserID),
			},
			Limit: limit,
		})
		if err != nil {
			return nil, mapStoreErr(err, "search profiles")
		}
	}

	out := make([]models.UserProfile, 0, len(docs))
	for _, doc := range docs {
		profile, err := decodeProfile(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, nil
}

// SetNotificationsEnabled toggles the push notification preference.
func (r *DocProfileRepository) SetNotificationsEnabled(ctx context.Context, profileID string, enabled bool) error {
	err := r.profiles.Update(ctx, profileID, map[string]any{
		"push_notifications_enabled": enabled,
	})
	return mapStoreErr(err, "update profile notifications")
}

func decodeProfile(doc docstore.Document) (models.UserProfile, error) {
	userID, err := stringField(doc, "user_id")
	if err != nil {
		return models.UserProfile{}, err
	}
	username, err := stringField(doc, "username")
	if err != nil {
		return models.UserProfile{}, err
	}
	email, err := stringField(doc, "email")
	if err != nil {
		return models.UserProfile{}, err
	}
	enabled, err := boolField(doc, "push_notifications_enabled")
	if err != nil {
		return models.UserProfile{}, err
	}
	createdAt, err := timeField(doc, "created_at")
	if err != nil {
		return models.UserProfile{}, err
	}
	return models.UserProfile{
		ID:                   doc.ID,
		UserID:               userID,
		Username:             username,
		Email:                email,
		NotificationsEnabled: enabled,
		CreatedAt:            createdAt,
	}, nil
}
