package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts calls and can hold them open to force overlap.
type countingStore struct {
	Store
	calls   int64
	release chan struct{}
}

func (c *countingStore) Filter(ctx context.Context, kind string, query map[string]any) ([]Record, error) {
	atomic.AddInt64(&c.calls, 1)
	if c.release != nil {
		<-c.release
	}
	return c.Store.Filter(ctx, kind, query)
}

func TestCoalescedSharesIdenticalReads(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	rec, err := mem.Create(ctx, "Project", map[string]any{"name": "Tower"})
	require.NoError(t, err)

	counting := &countingStore{Store: mem, release: make(chan struct{})}
	c := NewCoalesced(counting, 0)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]Record, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs, err := c.Filter(ctx, "Project", map[string]any{"id": rec.ID()})
			assert.NoError(t, err)
			results[i] = recs
		}(i)
	}
	// Wait for the first call to reach the backing store, give the rest
	// time to join the flight, then let it finish.
	for atomic.LoadInt64(&counting.calls) == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(counting.release)
	wg.Wait()

	// All callers got the record, but far fewer than eight calls hit
	// the backing store.
	for _, recs := range results {
		require.Len(t, recs, 1)
	}
	assert.Less(t, atomic.LoadInt64(&counting.calls), int64(callers))
}

func TestCoalescedDistinctQueriesNotShared(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	_, err := mem.Create(ctx, "Task", map[string]any{"project_id": "p1"})
	require.NoError(t, err)
	_, err = mem.Create(ctx, "Task", map[string]any{"project_id": "p2"})
	require.NoError(t, err)

	counting := &countingStore{Store: mem}
	c := NewCoalesced(counting, 4)

	recs1, err := c.Filter(ctx, "Task", map[string]any{"project_id": "p1"})
	require.NoError(t, err)
	recs2, err := c.Filter(ctx, "Task", map[string]any{"project_id": "p2"})
	require.NoError(t, err)

	assert.Len(t, recs1, 1)
	assert.Len(t, recs2, 1)
	assert.Equal(t, int64(2), atomic.LoadInt64(&counting.calls))
}

func TestCoalescedGateRespectsContext(t *testing.T) {
	mem := NewMemory()
	c := NewCoalesced(mem, 1)

	// Hold the only slot, then watch a cancelled caller fail fast.
	release, err := c.acquire(context.Background())
	require.NoError(t, err)
	defer release()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Create(cancelled, "Task", map[string]any{"title": "x"})
	assert.Error(t, err)
}

func TestCoalescedWritesPassThrough(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	c := NewCoalesced(mem, 4)

	rec, err := c.Create(ctx, "Task", map[string]any{"title": "Erect steel"})
	require.NoError(t, err)

	updated, err := c.Update(ctx, "Task", rec.ID(), map[string]any{"title": "Bolt up"})
	require.NoError(t, err)
	assert.Equal(t, "Bolt up", updated.Str("title"))

	require.NoError(t, c.Delete(ctx, "Task", rec.ID()))
	recs, err := c.Filter(ctx, "Task", map[string]any{"id": rec.ID()})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCoalescedReset(t *testing.T) {
	mem := NewMemory()
	c := NewCoalesced(mem, 2)
	c.Reset()

	recs, err := c.List(context.Background(), "Task", "")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
