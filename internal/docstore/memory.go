package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps collections in process memory. It backs unit tests and
// local development without a database.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	publisher   Publisher
	now         func() time.Time
}

// NewMemoryStore constructs an empty in-memory store. The publisher may be nil.
func NewMemoryStore(publisher Publisher) *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		publisher:   publisher,
		now:         time.Now,
	}
}

// WithNowFunc overrides the time source. Useful for tests.
func (s *MemoryStore) WithNowFunc(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Collection returns a handle for the named collection, creating it lazily.
func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) Create(_ context.Context, id string, fields map[string]any) error {
	if id == "" {
		return fmt.Errorf("docstore: empty document id")
	}

	c.store.mu.Lock()
	docs, ok := c.store.collections[c.name]
	if !ok {
		docs = make(map[string]Document)
		c.store.collections[c.name] = docs
	}
	if _, exists := docs[id]; exists {
		c.store.mu.Unlock()
		return ErrConflict
	}

	doc := Document{
		ID:        id,
		Fields:    cloneFields(fields),
		CreatedAt: timeFromFields(fields, c.store.now),
	}
	docs[id] = doc
	c.store.mu.Unlock()

	c.publish(ChangeEvent{Collection: c.name, Action: ActionCreate, Document: doc})
	return nil
}

func (c *memoryCollection) Get(_ context.Context, id string) (Document, error) {
	c.store.mu.RLock()
	doc, ok := c.store.collections[c.name][id]
	c.store.mu.RUnlock()
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: doc.ID, Fields: cloneFields(doc.Fields), CreatedAt: doc.CreatedAt}, nil
}

func (c *memoryCollection) List(_ context.Context, q Query) ([]Document, error) {
	c.store.mu.RLock()
	var out []Document
	for _, doc := range c.store.collections[c.name] {
		if matches(doc, q.Filters) {
			out = append(out, Document{ID: doc.ID, Fields: cloneFields(doc.Fields), CreatedAt: doc.CreatedAt})
		}
	}
	c.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if q.OrderNewestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c *memoryCollection) Update(_ context.Context, id string, fields map[string]any) error {
	c.store.mu.Lock()
	docs := c.store.collections[c.name]
	doc, ok := docs[id]
	if !ok {
		c.store.mu.Unlock()
		return ErrNotFound
	}

	merged := cloneFields(doc.Fields)
	for k, v := range fields {
		merged[k] = v
	}
	doc.Fields = merged
	docs[id] = doc
	c.store.mu.Unlock()

	c.publish(ChangeEvent{Collection: c.name, Action: ActionUpdate, Document: doc})
	return nil
}

func (c *memoryCollection) Delete(_ context.Context, id string) error {
	c.store.mu.Lock()
	docs := c.store.collections[c.name]
	doc, ok := docs[id]
	if !ok {
		c.store.mu.Unlock()
		return ErrNotFound
	}
	delete(docs, id)
	c.store.mu.Unlock()

	c.publish(ChangeEvent{Collection: c.name, Action: ActionDelete, Document: doc})
	return nil
}

func (c *memoryCollection) publish(event ChangeEvent) {
	if c.store.publisher != nil {
		c.store.publisher.Publish(event)
	}
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if !matchFilter(doc, f) {
			return false
		}
	}
	return true
}

func matchFilter(doc Document, f Filter) bool {
	got, ok := doc.Fields[f.Field]
	switch f.Op {
	case OpEqual:
		return ok && fieldString(got) == fieldString(f.Value)
	case OpNotEqual:
		return !ok || fieldString(got) != fieldString(f.Value)
	case OpPrefix:
		return ok && strings.HasPrefix(strings.ToLower(fieldString(got)), strings.ToLower(fieldString(f.Value)))
	case OpSearch:
		return ok && strings.Contains(strings.ToLower(fieldString(got)), strings.ToLower(fieldString(f.Value)))
	case OpIn:
		if !ok {
			return false
		}
		s := fieldString(got)
		for _, v := range f.Values {
			if s == v {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// fieldString normalizes comparable field values to their text form, matching
// how the Postgres backend compares JSONB text projections.
func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
