package repositories

import (
	"errors"

	"github.com/prostly/backend/internal/docstore"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

func isStoreNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}

func isStoreConflict(err error) bool {
	return errors.Is(err, docstore.ErrConflict)
}
