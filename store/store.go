// Package store defines the entity store contract the rest of the
// application is written against. Durable state is a set of schemaless
// records grouped by kind and addressed by opaque string ids; both the
// in-memory engine and the Postgres implementation satisfy the same
// contract, as does every wrapper (cache, coalescer).
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	// Delete is exempt: deleting an absent id is a successful no-op so
	// that cascade deletion stays safe to retry.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidKind is returned for an empty or malformed entity kind.
	ErrInvalidKind = errors.New("invalid entity kind")
)

// Record is a single schemaless entity record. Every record carries at
// least "id" and "created_date"; everything else is kind-specific and
// validated by the typed schemas in the db package.
type Record map[string]any

// ID returns the record's id, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Str returns a string field, or "" when absent or not a string.
func (r Record) Str(key string) string {
	v, _ := r[key].(string)
	return v
}

// Num returns a numeric field as float64. JSON decoding and the jsonb
// round-trip both produce float64, but records built in-process may
// hold int values, so those are accepted too.
func (r Record) Num(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// StrSlice returns a string-list field, tolerating []any from JSON.
func (r Record) StrSlice(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Store is the four-operation contract (plus Update) over the entity
// store. Implementations must not assume query languages, joins, or
// multi-record transactions.
//
// Sort keys follow the platform convention: "field" ascends,
// "-field" descends. Filter matches records whose fields equal every
// entry of the query; an unknown kind yields an empty result, not an
// error, since the schema evolves.
type Store interface {
	List(ctx context.Context, kind string, sort string) ([]Record, error)
	Filter(ctx context.Context, kind string, query map[string]any) ([]Record, error)
	Create(ctx context.Context, kind string, fields map[string]any) (Record, error)
	Update(ctx context.Context, kind, id string, fields map[string]any) (Record, error)
	Delete(ctx context.Context, kind, id string) error
}

// Get fetches a single record by id via Filter. It is a convenience on
// top of the four-op contract, not a fifth operation.
func Get(ctx context.Context, s Store, kind, id string) (Record, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	recs, err := s.Filter(ctx, kind, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}
