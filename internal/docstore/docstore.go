// Package docstore provides a small document-store abstraction: named
// collections of schemaless records addressed by id, queried with a bounded
// filter language. The workflow packages never touch SQL directly; they go
// through a Collection, which keeps the persistence backend swappable between
// Postgres and the in-memory store used in tests.
package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the addressed document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrConflict indicates a document with the same id already exists.
	ErrConflict = errors.New("docstore: document already exists")
)

// Document is a decoded record from a collection.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt time.Time
}

// FilterOp enumerates the supported predicate kinds.
type FilterOp int

const (
	// OpEqual matches documents whose field equals the value.
	OpEqual FilterOp = iota
	// OpNotEqual matches documents whose field differs from the value.
	OpNotEqual
	// OpPrefix matches string fields beginning with the value.
	OpPrefix
	// OpSearch matches string fields containing the value as a word or
	// fragment (full-text where the backend supports it).
	OpSearch
	// OpIn matches documents whose field equals any of the listed values.
	OpIn
)

// Filter is a single predicate over one document field.
type Filter struct {
	Field  string
	Op     FilterOp
	Value  any
	Values []string
}

// Equal builds an equality filter.
func Equal(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// NotEqual builds an inequality filter.
func NotEqual(field string, value any) Filter {
	return Filter{Field: field, Op: OpNotEqual, Value: value}
}

// Prefix builds a case-insensitive prefix filter.
func Prefix(field, value string) Filter {
	return Filter{Field: field, Op: OpPrefix, Value: value}
}

// Search builds a text-search filter.
func Search(field, value string) Filter {
	return Filter{Field: field, Op: OpSearch, Value: value}
}

// In builds a set-membership filter.
func In(field string, values ...string) Filter {
	return Filter{Field: field, Op: OpIn, Values: values}
}

// Query bounds a List call. OrderNewestFirst sorts by document creation time
// descending; Limit of zero means no cap.
type Query struct {
	Filters          []Filter
	OrderNewestFirst bool
	Limit            int
}

// Collection exposes the document operations a single named collection
// supports. Workflow code only ever creates, lists, and updates; Delete exists
// for session revocation and is not used by any workflow entity.
type Collection interface {
	Create(ctx context.Context, id string, fields map[string]any) error
	Get(ctx context.Context, id string) (Document, error)
	List(ctx context.Context, q Query) ([]Document, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// Store hands out collections by name.
type Store interface {
	Collection(name string) Collection
}

// Action enumerates the change kinds a write can produce.
type Action int

const (
	// ActionCreate signals a document was inserted.
	ActionCreate Action = iota
	// ActionUpdate signals an existing document was modified.
	ActionUpdate
	// ActionDelete signals a document was removed.
	ActionDelete
)

// ChangeEvent describes a committed write. The channel string mirrors the
// hosted-backend convention so realtime consumers can map it to a typed event.
type ChangeEvent struct {
	Collection string
	Action     Action
	Document   Document
}

// Channel returns the per-collection channel name for the event.
func (e ChangeEvent) Channel() string {
	return "collections." + e.Collection + ".documents"
}

// Publisher receives change events after each successful write. Implementations
// must not block; slow consumers drop events rather than stall the store.
type Publisher interface {
	Publish(event ChangeEvent)
}

// timeFromFields extracts the document creation time when the caller provided
// one, falling back to now. Both backends use this so ordering is consistent.
func timeFromFields(fields map[string]any, now func() time.Time) time.Time {
	switch v := fields["created_at"].(type) {
	case time.Time:
		return v.UTC()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC()
		}
	}
	return now().UTC()
}
