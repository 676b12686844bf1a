// Package cache implements an optional read-through cache-aside layer
// over the tiered Store, grounded on the teacher's
// internal/adapters/cache/redis.go RedisAdapter.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"priceflow/internal/core/port"
)

const latestTTL = 2 * time.Minute

// RedisCache wraps a *redis.Client as port.Cache.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) port.Cache {
	return &RedisCache{client: client}
}

func latestKey(asset string) string {
	return fmt.Sprintf("latest:%s", asset)
}

// encodeLatest packs ts/price into the pipe-delimited value stored
// under a latest:<asset> key.
func encodeLatest(ts int64, price float64) string {
	return fmt.Sprintf("%d|%s", ts, strconv.FormatFloat(price, 'f', -1, 64))
}

// decodeLatest is encodeLatest's inverse; ok is false for any value
// that does not round-trip (treated the same as a cache miss).
func decodeLatest(value string) (price float64, ts int64, ok bool) {
	parts := strings.SplitN(value, "|", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	price, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return price, ts, true
}

// SetLatest stores price/ts as a small pipe-delimited value; a 2
// minute TTL (ten Aggregator cycles at the default 12s cadence)
// bounds how long a stale cache entry can live even if Invalidate is
// ever missed.
func (c *RedisCache) SetLatest(ctx context.Context, asset string, ts int64, price float64) error {
	if err := c.client.Set(ctx, latestKey(asset), encodeLatest(ts, price), latestTTL).Err(); err != nil {
		return fmt.Errorf("cache set latest: %w", err)
	}
	return nil
}

func (c *RedisCache) GetLatest(ctx context.Context, asset string) (float64, int64, bool, error) {
	value, err := c.client.Get(ctx, latestKey(asset)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("cache get latest: %w", err)
	}

	price, ts, ok := decodeLatest(value)
	return price, ts, ok, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, asset string) error {
	if err := c.client.Del(ctx, latestKey(asset)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
