// Package cache is a Redis read-through cache for catalog reads, with
// singleflight collapsing concurrent misses into one database fetch.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/nazeru/storefront-api/internal/domain"
)

type ProductSource interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type ProductCache struct {
	rdb    *redis.Client // nil disables caching
	source ProductSource
	ttl    time.Duration
	group  singleflight.Group
}

func NewProductCache(rdb *redis.Client, source ProductSource, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ProductCache{rdb: rdb, source: source, ttl: ttl}
}

func key(id string) string {
	return "product:" + id
}

func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	if c.rdb == nil {
		return c.source.Get(ctx, id)
	}

	if data, err := c.rdb.Get(ctx, key(id)).Bytes(); err == nil {
		var p domain.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		// Corrupt entry: fall through and refill.
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		p, err := c.source.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if data, merr := json.Marshal(p); merr == nil {
			// Best effort; a failed fill only costs the next reader a miss.
			_ = c.rdb.Set(ctx, key(id), data, c.ttl).Err()
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// Invalidate is called after any catalog write so readers never see a stale
// price or stock snapshot longer than one round trip.
func (c *ProductCache) Invalidate(ctx context.Context, id string) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, key(id)).Err()
}
