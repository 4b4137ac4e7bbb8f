package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitKeyPrefix namespaces rate limit counters in Redis.
const RedisRateLimitKeyPrefix = "cropadvisor:ratelimit:"

// fixedWindowScript increments the window counter, starting the window on the
// first hit, and returns the new count and the window's remaining TTL in ms.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisRateLimitStore implements RateLimitStore with a fixed window counter in
// Redis, so limits hold across API instances. Redis errors fail open: the
// request is allowed and the error is counted.
type RedisRateLimitStore struct {
	client  redis.Scripter
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
func NewRedisRateLimitStore(client redis.Scripter) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

// WithMetrics counts fail-open events on m.
func (s *RedisRateLimitStore) WithMetrics(m *Metrics) *RedisRateLimitStore {
	s.metrics = m
	return s
}

// Key returns the Redis key used for a rate limit key.
func (s *RedisRateLimitStore) Key(key string) string {
	return RedisRateLimitKeyPrefix + key
}

// Allow implements RateLimitStore.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int, int) {
	window := config.WindowDuration.Milliseconds()
	if window <= 0 {
		window = 1
	}

	res, err := fixedWindowScript.Run(ctx, s.client, []string{s.Key(key)}, window).Int64Slice()
	if err != nil || len(res) != 2 {
		if s.metrics != nil {
			s.metrics.IncRateLimitRedisErrors()
		}
		slog.WarnContext(ctx, "rate limit store unavailable, allowing request", "error", err)
		return true, config.RequestsPerWindow, 0
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if count <= config.RequestsPerWindow {
		return true, config.RequestsPerWindow - count, 0
	}
	if ttl < 0 {
		ttl = config.WindowDuration
	}
	return false, 0, retryAfterSeconds(ttl)
}
