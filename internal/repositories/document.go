package repositories

import (
	"fmt"
	"time"

	"github.com/prostly/backend/internal/docstore"
)

// Collection names used across the repositories.
const (
	CollectionAccounts      = "accounts"
	CollectionProfiles      = "profiles"
	CollectionFriendships   = "friendships"
	CollectionNotifications = "notifications"
	CollectionDrinks        = "drinks"
	CollectionSessions      = "sessions"
)

// The store hands back schemaless documents; everything crossing into the
// typed model layer is validated here so malformed records surface as decode
// errors instead of zero values deeper in the workflows.

func stringField(doc docstore.Document, key string) (string, error) {
	v, ok := doc.Fields[key]
	if !ok {
		return "", fmt.Errorf("document %s: missing field %q", doc.ID, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("document %s: field %q is not a string", doc.ID, key)
	}
	return s, nil
}

func boolField(doc docstore.Document, key string) (bool, error) {
	v, ok := doc.Fields[key]
	if !ok {
		return false, fmt.Errorf("document %s: missing field %q", doc.ID, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("document %s: field %q is not a bool", doc.ID, key)
	}
	return b, nil
}

func timeField(doc docstore.Document, key string) (time.Time, error) {
	v, ok := doc.Fields[key]
	if !ok {
		return time.Time{}, fmt.Errorf("document %s: missing field %q", doc.ID, key)
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("document %s: field %q: %w", doc.ID, key, err)
		}
		return parsed.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("document %s: field %q is not a timestamp", doc.ID, key)
	}
}

// mapStoreErr translates docstore sentinels into the repository sentinels the
// rest of the service branches on.
func mapStoreErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case isStoreNotFound(err):
		return ErrNotFound
	case isStoreConflict(err):
		return ErrConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
