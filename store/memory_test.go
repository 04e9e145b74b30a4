package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCreateAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Create(ctx, "Project", map[string]any{"name": "Tower"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID())
	assert.NotEmpty(t, rec.Str("created_date"))

	_, err = time.Parse(time.RFC3339Nano, rec.Str("created_date"))
	assert.NoError(t, err)
}

func TestMemoryFilterLooseNumericMatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Create(ctx, "Task", map[string]any{"priority": 3})
	require.NoError(t, err)

	// A JSON round-trip turns ints into float64; the filter must not
	// care which side holds which type.
	recs, err := m.Filter(ctx, "Task", map[string]any{"priority": 3.0})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMemoryUpdateProtectsIdentityFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Create(ctx, "Task", map[string]any{"title": "Old"})
	require.NoError(t, err)

	updated, err := m.Update(ctx, "Task", rec.ID(), map[string]any{
		"title":        "New",
		"id":           "hijacked",
		"created_date": "1999-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Str("title"))
	assert.Equal(t, rec.ID(), updated.ID())
	assert.Equal(t, rec.Str("created_date"), updated.Str("created_date"))
}

func TestMemoryUpdateMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Update(ctx, "Task", "nope", map[string]any{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Create(ctx, "Task", map[string]any{"title": "x"})
	require.NoError(t, err)

	assert.NoError(t, m.Delete(ctx, "Task", rec.ID()))
	assert.NoError(t, m.Delete(ctx, "Task", rec.ID()))
	assert.NoError(t, m.Delete(ctx, "NeverSeenKind", "whatever"))
}

func TestMemoryListSortAscendingAndDescending(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, name := range []string{"beta", "alpha", "gamma"} {
		_, err := m.Create(ctx, "Project", map[string]any{"name": name})
		require.NoError(t, err)
	}

	asc, err := m.List(ctx, "Project", "name")
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, "alpha", asc[0].Str("name"))
	assert.Equal(t, "gamma", asc[2].Str("name"))

	desc, err := m.List(ctx, "Project", "-name")
	require.NoError(t, err)
	assert.Equal(t, "gamma", desc[0].Str("name"))
	assert.Equal(t, "alpha", desc[2].Str("name"))
}

func TestMemoryRejectsEmptyKind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.List(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidKind)
	_, err = m.Create(ctx, "", nil)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Create(ctx, "Task", map[string]any{"title": "original"})
	require.NoError(t, err)

	// Mutating a returned record must not leak into the store.
	rec["title"] = "mutated"
	got, err := Get(ctx, m, "Task", rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "original", got.Str("title"))
}
