package rateLimit

import (
	"context"
	"time"

	redisadapter "github.com/robertarktes/venue-sync/internal/adapters/redis"
)

type RateLimiter struct {
	redis *redisadapter.Cache
}

func NewRateLimiter(redis *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow fails open when redis is unreachable.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	n, err := rl.redis.IncrWindow(ctx, key, period)
	if err != nil {
		return true
	}
	return n <= int64(rate)
}
