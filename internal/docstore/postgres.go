package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prostly/backend/internal/db"
)

// PostgresStore persists documents in a single JSONB-backed table shared by
// all collections. Uniqueness is on (collection, id) only; the filter language
// is compiled to predicates over text projections of the JSONB fields.
type PostgresStore struct {
	pool      db.Pool
	publisher Publisher
	now       func() time.Time
}

// NewPostgresStore constructs a store backed by the provided pool. The
// publisher may be nil when no realtime delivery is wired.
func NewPostgresStore(pool db.Pool, publisher Publisher) *PostgresStore {
	return &PostgresStore{pool: pool, publisher: publisher, now: time.Now}
}

// Collection returns a handle for the named collection.
func (s *PostgresStore) Collection(name string) Collection {
	return &postgresCollection{store: s, name: name}
}

type postgresCollection struct {
	store *PostgresStore
	name  string
}

func (c *postgresCollection) Create(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return fmt.Errorf("docstore: empty document id")
	}

	conn, err := c.store.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	payload, err := json.Marshal(normalizeFields(fields))
	if err != nil {
		return fmt.Errorf("encode document fields: %w", err)
	}

	createdAt := timeFromFields(fields, c.store.now)

	_, err = conn.Exec(ctx, `
        INSERT INTO documents (collection, id, fields, created_at)
        VALUES ($1, $2, $3, $4)
    `, c.name, id, payload, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}

	c.publish(ChangeEvent{
		Collection: c.name,
		Action:     ActionCreate,
		Document:   Document{ID: id, Fields: normalizeFields(fields), CreatedAt: createdAt},
	})
	return nil
}

func (c *postgresCollection) Get(ctx context.Context, id string) (Document, error) {
	conn, err := c.store.pool.Acquire(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT fields, created_at FROM documents
        WHERE collection = $1 AND id = $2
    `, c.name, id)

	var (
		payload   []byte
		createdAt time.Time
	)
	if err := row.Scan(&payload, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("select document: %w", err)
	}

	doc := Document{ID: id, CreatedAt: createdAt.UTC()}
	if err := json.Unmarshal(payload, &doc.Fields); err != nil {
		return Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, nil
}

func (c *postgresCollection) List(ctx context.Context, q Query) ([]Document, error) {
	conn, err := c.store.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	sql, args, err := buildListQuery(c.name, q)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			doc       Document
			payload   []byte
			createdAt time.Time
		)
		if err := rows.Scan(&doc.ID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(payload, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
		doc.CreatedAt = createdAt.UTC()
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return out, nil
}

func (c *postgresCollection) Update(ctx context.Context, id string, fields map[string]any) error {
	conn, err := c.store.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	payload, err := json.Marshal(normalizeFields(fields))
	if err != nil {
		return fmt.Errorf("encode document fields: %w", err)
	}

	row := conn.QueryRow(ctx, `
        UPDATE documents
        SET fields = fields || $3
        WHERE collection = $1 AND id = $2
        RETURNING fields, created_at
    `, c.name, id, payload)

	var (
		merged    []byte
		createdAt time.Time
	)
	if err := row.Scan(&merged, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update document: %w", err)
	}

	doc := Document{ID: id, CreatedAt: createdAt.UTC()}
	if err := json.Unmarshal(merged, &doc.Fields); err != nil {
		return fmt.Errorf("decode updated document %s: %w", id, err)
	}

	c.publish(ChangeEvent{Collection: c.name, Action: ActionUpdate, Document: doc})
	return nil
}

func (c *postgresCollection) Delete(ctx context.Context, id string) error {
	conn, err := c.store.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM documents
        WHERE collection = $1 AND id = $2
    `, c.name, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	c.publish(ChangeEvent{Collection: c.name, Action: ActionDelete, Document: Document{ID: id}})
	return nil
}

func (c *postgresCollection) publish(event ChangeEvent) {
	if c.store.publisher != nil {
		c.store.publisher.Publish(event)
	}
}

// buildListQuery compiles a Query into SQL over the shared documents table.
func buildListQuery(collection string, q Query) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, fields, created_at FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range q.Filters {
		if f.Field == "" {
			return "", nil, fmt.Errorf("docstore: filter with empty field")
		}
		switch f.Op {
		case OpEqual:
			args = append(args, fieldString(f.Value))
			fmt.Fprintf(&sb, ` AND fields->>%s = $%d`, quoteLiteral(f.Field), len(args))
		case OpNotEqual:
			args = append(args, fieldString(f.Value))
			fmt.Fprintf(&sb, ` AND fields->>%s IS DISTINCT FROM $%d`, quoteLiteral(f.Field), len(args))
		case OpPrefix:
			args = append(args, escapeLike(fieldString(f.Value))+"%")
			fmt.Fprintf(&sb, ` AND fields->>%s ILIKE $%d`, quoteLiteral(f.Field), len(args))
		case OpSearch:
			args = append(args, "%"+escapeLike(fieldString(f.Value))+"%")
			fmt.Fprintf(&sb, ` AND fields->>%s ILIKE $%d`, quoteLiteral(f.Field), len(args))
		case OpIn:
			args = append(args, f.Values)
			fmt.Fprintf(&sb, ` AND fields->>%s = ANY($%d)`, quoteLiteral(f.Field), len(args))
		default:
			return "", nil, fmt.Errorf("docstore: unsupported filter op %d", f.Op)
		}
	}

	if q.OrderNewestFirst {
		sb.WriteString(` ORDER BY created_at DESC`)
	} else {
		sb.WriteString(` ORDER BY created_at ASC`)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	return sb.String(), args, nil
}

// quoteLiteral renders a field name as a SQL string literal for the ->>
// operator. Field names come from repository code, never from request input,
// but escaping keeps the invariant local.
func quoteLiteral(field string) string {
	return "'" + strings.ReplaceAll(field, "'", "''") + "'"
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// normalizeFields renders non-JSON-native values (times) into their canonical
// text form so both backends store and compare identical projections.
func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if t, ok := v.(time.Time); ok {
			out[k] = t.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[k] = v
	}
	return out
}
