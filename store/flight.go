package store

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Coalesced wraps a Store with two small request-shaping layers:
//
//   - identical concurrent reads (same kind + same predicate) share a
//     single underlying call, and
//   - a weighted semaphore caps simultaneous outbound store calls.
//
// It is an explicitly constructed component, not process-global state;
// tests build isolated instances and Reset drops any in-flight
// bookkeeping between cases.
type Coalesced struct {
	inner  Store
	flight *singleflight.Group
	gate   *semaphore.Weighted
	limit  int64
}

// NewCoalesced builds the wrapper. maxConcurrent <= 0 disables the gate.
func NewCoalesced(inner Store, maxConcurrent int) *Coalesced {
	c := &Coalesced{
		inner:  inner,
		flight: &singleflight.Group{},
		limit:  int64(maxConcurrent),
	}
	if maxConcurrent > 0 {
		c.gate = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return c
}

var _ Store = (*Coalesced)(nil)

// Reset discards the in-flight request map. Pending calls already
// sharing a result are unaffected.
func (c *Coalesced) Reset() {
	c.flight = &singleflight.Group{}
	if c.limit > 0 {
		c.gate = semaphore.NewWeighted(c.limit)
	}
}

func (c *Coalesced) acquire(ctx context.Context) (release func(), err error) {
	if c.gate == nil {
		return func() {}, nil
	}
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { c.gate.Release(1) }, nil
}

func (c *Coalesced) List(ctx context.Context, kind string, sortKey string) ([]Record, error) {
	key := fmt.Sprintf("list|%s|%s", kind, sortKey)
	v, err, _ := c.flight.Do(key, func() (any, error) {
		release, err := c.acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
		return c.inner.List(ctx, kind, sortKey)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Record), nil
}

func (c *Coalesced) Filter(ctx context.Context, kind string, query map[string]any) ([]Record, error) {
	sig, err := requestSignature(kind, query)
	if err != nil {
		// Unkeyable predicate: fall through without coalescing.
		release, aerr := c.acquire(ctx)
		if aerr != nil {
			return nil, aerr
		}
		defer release()
		return c.inner.Filter(ctx, kind, query)
	}
	v, err, _ := c.flight.Do(sig, func() (any, error) {
		release, err := c.acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
		return c.inner.Filter(ctx, kind, query)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Record), nil
}

// Writes are never coalesced, only gated.

func (c *Coalesced) Create(ctx context.Context, kind string, fields map[string]any) (Record, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return c.inner.Create(ctx, kind, fields)
}

func (c *Coalesced) Update(ctx context.Context, kind, id string, fields map[string]any) (Record, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return c.inner.Update(ctx, kind, id, fields)
}

func (c *Coalesced) Delete(ctx context.Context, kind, id string) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return c.inner.Delete(ctx, kind, id)
}

// requestSignature builds a stable key for a filter call. Map key order
// does not matter: encoding/json sorts object keys when marshaling maps.
func requestSignature(kind string, query map[string]any) (string, error) {
	data, err := json.Marshal(query)
	if err != nil {
		return "", err
	}
	return "filter|" + kind + "|" + string(data), nil
}
