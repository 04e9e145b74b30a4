package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// cacheTTL bounds staleness for by-id lookups. Writes invalidate
// eagerly, so the TTL only matters for writes made by other processes.
const cacheTTL = 30 * time.Second

// Cached is a read-through Redis cache over another Store. Only
// single-record by-id Filter lookups are cached; those are the hot path
// (every project-scoped request refetches the Project record for its
// access check). Cache failures degrade to the inner store.
type Cached struct {
	inner Store
	redis *redis.Client
}

// NewCached wraps inner with a Redis cache. A nil client returns the
// inner store unchanged.
func NewCached(inner Store, client *redis.Client) Store {
	if client == nil {
		return inner
	}
	return &Cached{inner: inner, redis: client}
}

var _ Store = (*Cached)(nil)

func cacheKey(kind, id string) string {
	return fmt.Sprintf("entity:%s:%s", kind, id)
}

func (c *Cached) List(ctx context.Context, kind string, sortKey string) ([]Record, error) {
	return c.inner.List(ctx, kind, sortKey)
}

func (c *Cached) Filter(ctx context.Context, kind string, query map[string]any) ([]Record, error) {
	id, ok := byIDQuery(query)
	if !ok {
		return c.inner.Filter(ctx, kind, query)
	}

	key := cacheKey(kind, id)
	if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var rec Record
		if jsonErr := json.Unmarshal(data, &rec); jsonErr == nil {
			return []Record{rec}, nil
		}
	}

	recs, err := c.inner.Filter(ctx, kind, query)
	if err != nil {
		return nil, err
	}
	if len(recs) == 1 {
		if data, jsonErr := json.Marshal(recs[0]); jsonErr == nil {
			if err := c.redis.Set(ctx, key, data, cacheTTL).Err(); err != nil {
				log.Printf("Cache write failed for %s: %v", key, err)
			}
		}
	}
	return recs, nil
}

func (c *Cached) Create(ctx context.Context, kind string, fields map[string]any) (Record, error) {
	return c.inner.Create(ctx, kind, fields)
}

func (c *Cached) Update(ctx context.Context, kind, id string, fields map[string]any) (Record, error) {
	rec, err := c.inner.Update(ctx, kind, id, fields)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, kind, id)
	return rec, nil
}

func (c *Cached) Delete(ctx context.Context, kind, id string) error {
	if err := c.inner.Delete(ctx, kind, id); err != nil {
		return err
	}
	c.invalidate(ctx, kind, id)
	return nil
}

func (c *Cached) invalidate(ctx context.Context, kind, id string) {
	if err := c.redis.Del(ctx, cacheKey(kind, id)).Err(); err != nil {
		log.Printf("Cache invalidation failed for %s/%s: %v", kind, id, err)
	}
}

// byIDQuery reports whether query is exactly {"id": <string>}.
func byIDQuery(query map[string]any) (string, bool) {
	if len(query) != 1 {
		return "", false
	}
	id, ok := query["id"].(string)
	return id, ok && id != ""
}
