package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps fixed-window counters in Redis (INCR + EXPIRE) so every
// instance shares them.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit"}
}

// Allow returns an error when Redis is unreachable; callers decide whether to fail open.
func (l *RedisLimiter) Allow(ctx context.Context, rule Rule, client string) (Result, error) {
	key := l.prefix + ":" + rule.Name + ":" + client

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Result{}, err
	}
	// first hit opens the window
	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			return Result{}, err
		}
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return Result{}, err
	}
	if ttl < 0 {
		// counter lost its expiry (crash between INCR and EXPIRE)
		_ = l.client.Expire(ctx, key, rule.Window).Err()
		ttl = rule.Window
	}

	res := Result{
		Limit: rule.Max,
		Reset: time.Now().Add(ttl),
	}
	if count > int64(rule.Max) {
		return res, nil
	}
	res.Allowed = true
	res.Remaining = rule.Max - int(count)
	return res, nil
}
