package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a thread-safe in-memory Store. It backs tests and local
// development when no DATABASE_URL is configured.
type Memory struct {
	mu sync.RWMutex
	// Structure: [kind][id]Record
	data map[string]map[string]Record

	// now is swappable so tests can pin created_date values.
	now func() time.Time
}

// NewMemory initializes an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string]Record),
		now:  time.Now,
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) List(ctx context.Context, kind string, sortKey string) ([]Record, error) {
	if kind == "" {
		return nil, ErrInvalidKind
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, rec := range m.data[kind] {
		out = append(out, copyRecord(rec))
	}
	sortRecords(out, sortKey)
	return out, nil
}

func (m *Memory) Filter(ctx context.Context, kind string, query map[string]any) ([]Record, error) {
	if kind == "" {
		return nil, ErrInvalidKind
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, rec := range m.data[kind] {
		if matches(rec, query) {
			out = append(out, copyRecord(rec))
		}
	}
	sortRecords(out, "created_date")
	return out, nil
}

func (m *Memory) Create(ctx context.Context, kind string, fields map[string]any) (Record, error) {
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
	rec["created_date"] = m.now().UTC().Format(time.RFC3339Nano)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[kind] == nil {
		m.data[kind] = make(map[string]Record)
	}
	m.data[kind][rec.ID()] = copyRecord(rec)
	return rec, nil
}

func (m *Memory) Update(ctx context.Context, kind, id string, fields map[string]any) (Record, error) {
	if kind == "" {
		return nil, ErrInvalidKind
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.data[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range fields {
		if k == "id" || k == "created_date" {
			continue
		}
		rec[k] = v
	}
	m.data[kind][id] = rec
	return copyRecord(rec), nil
}

// Delete removes a record. Deleting an absent id is a no-op success so
// that retried or concurrent cascades do not observe errors.
func (m *Memory) Delete(ctx context.Context, kind, id string) error {
	if kind == "" {
		return ErrInvalidKind
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if recs, ok := m.data[kind]; ok {
		delete(recs, id)
	}
	return nil
}

func copyRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func matches(rec Record, query map[string]any) bool {
	for k, want := range query {
		got, ok := rec[k]
		if !ok {
			return false
		}
		if !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares scalars the way a JSON round-trip would: numeric
// types collapse to float64, everything else compares directly.
func looseEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func sortRecords(recs []Record, sortKey string) {
	if sortKey == "" {
		sortKey = "created_date"
	}
	desc := strings.HasPrefix(sortKey, "-")
	key := strings.TrimPrefix(sortKey, "-")
	sort.SliceStable(recs, func(i, j int) bool {
		less := recs[i].Str(key) < recs[j].Str(key)
		if desc {
			return !less
		}
		return less
	})
}
