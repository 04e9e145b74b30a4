package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Postgres implements Store on a single jsonb table, one row per
// record. It exists for self-hosted deployments where the entity store
// is not an external managed platform.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open connection. Call Migrate before first use.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var _ Store = (*Postgres)(nil)

// Migrate creates the entities table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS entities (
			kind TEXT NOT NULL,
			id   TEXT NOT NULL,
			data JSONB NOT NULL,
			PRIMARY KEY (kind, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate entities table: %w", err)
	}
	return nil
}

var sortKeyPattern = regexp.MustCompile(`^-?[a-z0-9_]+$`)

func (p *Postgres) List(ctx context.Context, kind string, sortKey string) ([]Record, error) {
	if kind == "" {
		return nil, ErrInvalidKind
	}
	if sortKey == "" {
		sortKey = "created_date"
	}
	if !sortKeyPattern.MatchString(sortKey) {
		return nil, fmt.Errorf("%w: bad sort key %q", ErrInvalidKind, sortKey)
	}
	dir := "ASC"
	key := sortKey
	if sortKey[0] == '-' {
		dir = "DESC"
		key = sortKey[1:]
	}

	// Sort key is validated against a strict pattern above; it cannot be
	// bound as a statement parameter because it is an expression, not a value.
	q := fmt.Sprintf(`SELECT data FROM entities WHERE kind = $1 ORDER BY data->>'%s' %s`, key, dir)
	rows, err := p.db.QueryContext(ctx, q, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (p *Postgres) Filter(ctx context.Context, kind string, query map[string]any) ([]Record, error) {
	if kind == "" {
		return nil, ErrInvalidKind
	}
	predicate, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", kind, err)
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT data FROM entities
		WHERE kind = $1 AND data @> $2::jsonb
		ORDER BY data->>'created_date' ASC
	`, kind, string(predicate))
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", kind, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (p *Postgres) Create(ctx context.Context, kind string, fields map[string]any) (Record, error) {
	if kind == "" {
		return nil, ErrInvalidKind
	}
	rec := make(Record, len(fields)+2)
	for k, v := range fields {
		rec[k] = v
	}
	if rec.ID() == "" {
		rec["id"] = uuid.New().String()
	}
	rec["created_date"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO entities (kind, id, data) VALUES ($1, $2, $3::jsonb)
	`, kind, rec.ID(), string(data))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	return rec, nil
}

func (p *Postgres) Update(ctx context.Context, kind, id string, fields map[string]any) (Record, error) {
	if kind == "" {
		return nil, ErrInvalidKind
	}
	patch := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "id" || k == "created_date" {
			continue
		}
		patch[k] = v
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", kind, id, err)
	}

	var merged []byte
	err = p.db.QueryRowContext(ctx, `
		UPDATE entities SET data = data || $3::jsonb
		WHERE kind = $1 AND id = $2
		RETURNING data
	`, kind, id, string(data)).Scan(&merged)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", kind, id, err)
	}

	var rec Record
	if err := json.Unmarshal(merged, &rec); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", kind, id, err)
	}
	return rec, nil
}

// Delete removes a record; a missing id is a no-op success.
func (p *Postgres) Delete(ctx context.Context, kind, id string) error {
	if kind == "" {
		return ErrInvalidKind
	}
	_, err := p.db.ExecContext(ctx, `DELETE FROM entities WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", kind, id, err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
