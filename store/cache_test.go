package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedMemory(t *testing.T) (Store, *Memory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mem := NewMemory()
	return NewCached(mem, client), mem, mr
}

func TestCachedNilClientPassthrough(t *testing.T) {
	mem := NewMemory()
	assert.Equal(t, Store(mem), NewCached(mem, nil))
}

func TestCachedByIDReadThrough(t *testing.T) {
	ctx := context.Background()
	cached, mem, mr := newCachedMemory(t)

	rec, err := mem.Create(ctx, "Project", map[string]any{"name": "Tower"})
	require.NoError(t, err)

	recs, err := cached.Filter(ctx, "Project", map[string]any{"id": rec.ID()})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, mr.Exists("entity:Project:"+rec.ID()))

	// Second read is served from the cache: mutate the backing store
	// directly and observe the stale cached copy.
	_, err = mem.Update(ctx, "Project", rec.ID(), map[string]any{"name": "Changed"})
	require.NoError(t, err)

	recs, err = cached.Filter(ctx, "Project", map[string]any{"id": rec.ID()})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Tower", recs[0].Str("name"))
}

func TestCachedUpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	cached, mem, mr := newCachedMemory(t)

	rec, err := mem.Create(ctx, "Project", map[string]any{"name": "Tower"})
	require.NoError(t, err)

	_, err = cached.Filter(ctx, "Project", map[string]any{"id": rec.ID()})
	require.NoError(t, err)
	require.True(t, mr.Exists("entity:Project:"+rec.ID()))

	_, err = cached.Update(ctx, "Project", rec.ID(), map[string]any{"name": "Renamed"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("entity:Project:"+rec.ID()))

	recs, err := cached.Filter(ctx, "Project", map[string]any{"id": rec.ID()})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Renamed", recs[0].Str("name"))
}

func TestCachedDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	cached, mem, mr := newCachedMemory(t)

	rec, err := mem.Create(ctx, "Project", map[string]any{"name": "Tower"})
	require.NoError(t, err)

	_, err = cached.Filter(ctx, "Project", map[string]any{"id": rec.ID()})
	require.NoError(t, err)
	require.True(t, mr.Exists("entity:Project:"+rec.ID()))

	require.NoError(t, cached.Delete(ctx, "Project", rec.ID()))
	assert.False(t, mr.Exists("entity:Project:"+rec.ID()))

	recs, err := cached.Filter(ctx, "Project", map[string]any{"id": rec.ID()})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCachedNonIDFilterBypassesCache(t *testing.T) {
	ctx := context.Background()
	cached, mem, mr := newCachedMemory(t)

	rec, err := mem.Create(ctx, "Task", map[string]any{"project_id": "p1"})
	require.NoError(t, err)

	recs, err := cached.Filter(ctx, "Task", map[string]any{"project_id": "p1"})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.False(t, mr.Exists("entity:Task:"+rec.ID()))
}
