package redis

import (
	"context"
	"fmt"
	"time"
)

// OrderLimiter caps order submissions per chat within a fixed window.
type OrderLimiter struct {
	kv     KV
	limit  int64
	window time.Duration
}

// NewOrderLimiter returns a limiter allowing limit submissions per window.
// A zero limit allows everything.
func NewOrderLimiter(kv KV, limit int64, window time.Duration) *OrderLimiter {
	return &OrderLimiter{
		kv:     kv,
		limit:  limit,
		window: window,
	}
}

// Allow counts a submission attempt and reports whether it is within the
// limit.
func (l *OrderLimiter) Allow(ctx context.Context, chatID int64) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	key := buildRateKey(chatID)
	n, err := l.kv.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", key, err)
	}

	// The window starts on the first attempt. A counter over the limit with
	// no expiry lost its EXPIRE and gets it again.
	needExpire := n == 1
	if !needExpire && n > l.limit {
		ttl, err := l.kv.TTL(ctx, key)
		if err != nil {
			return false, fmt.Errorf("ttl %s: %w", key, err)
		}
		needExpire = ttl < 0
	}
	if needExpire {
		if _, err := l.kv.Expire(ctx, key, l.window); err != nil {
			return false, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	return n <= l.limit, nil
}

func buildRateKey(chatID int64) string {
	return fmt.Sprintf("order_rate:%d", chatID)
}
