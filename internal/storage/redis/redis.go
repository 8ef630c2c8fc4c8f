// Package redis keeps shared, non-session data in Redis: the catalog cache
// and the order submission counters.
package redis

import (
	"context"
	"time"
)

// KV is the subset of pkg/redis.Client the storage needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}
