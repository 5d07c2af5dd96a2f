package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Limiter is a fixed-window counter shared by every instance through redis.
type Limiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

func New(client *redis.Client, max int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		max:    int64(max),
		window: window,
	}
}

// Allow counts one hit for key and reports whether it is within the limit,
// together with the time until the window resets.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.max <= 0 {
		return true, 0, nil
	}

	k := keyPrefix + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	count := incr.Val()

	// A counter without expiry, either new or left behind by a failed
	// PEXPIRE, gets its window here.
	retry := pttl.Val()
	if retry < 0 {
		if err := l.client.PExpire(ctx, k, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
		}
		retry = l.window
	}
	return count <= l.max, retry, nil
}
