// Package rate implements a redis sliding-window limiter used to bound
// per-user chat traffic.
package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimit struct {
	Window  time.Duration
	MaxHits int
}

type ChatRateLimiter struct {
	redis *redis.Client
	limit RateLimit
}

func NewChatRateLimiter(rdb *redis.Client, limit RateLimit) *ChatRateLimiter {
	return &ChatRateLimiter{redis: rdb, limit: limit}
}

// Allow records a hit for the user and reports whether it fits in the
// window. Fails open on redis errors only at the caller's discretion.
func (l *ChatRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := fmt.Sprintf("chat_rate_limit:%s", userID)

	pipe := l.redis.Pipeline()
	now := time.Now().UnixNano()
	windowStart := now - l.limit.Window.Nanoseconds()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, key, l.limit.Window*2)

	results, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}

	count := results[1].(*redis.IntCmd).Val()
	return count < int64(l.limit.MaxHits), nil
}
