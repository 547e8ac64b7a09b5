package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter counts hits per key within a fixed window. Release gives back a
// hit whose request did not go through.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	Release(ctx context.Context, key string) error
}

// hitScript increments the counter and gives it a TTL in one step; a key
// left without one (PTTL -1) gets the window again.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

var releaseScript = redis.NewScript(`
local n = tonumber(redis.call("GET", KEYS[1]) or "0")
if n > 0 then
	return redis.call("DECR", KEYS[1])
end
return 0
`)

// RedisLimiter is a fixed-window counter: the first hit opens the window,
// hits past the limit are rejected until the key expires.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: int64(limit), window: window}
}

func (l *RedisLimiter) key(key string) string { return l.prefix + ":" + key }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := l.key(key)
	res, err := hitScript.Run(ctx, l.client, []string{k}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", k, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit %s: unexpected reply %v", k, res)
	}
	if res[0] > l.limit {
		return false, time.Duration(res[1]) * time.Millisecond, nil
	}
	return true, 0, nil
}

func (l *RedisLimiter) Release(ctx context.Context, key string) error {
	k := l.key(key)
	if err := releaseScript.Run(ctx, l.client, []string{k}).Err(); err != nil {
		return fmt.Errorf("release %s: %w", k, err)
	}
	return nil
}

// RateLimit limits requests per authenticated user under scope. Only
// requests that succeed count. It must run after AuthMiddleware.
func RateLimit(l Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(userIDKey)
		if userID == "" {
			Abort(c, NewError(http.StatusUnauthorized, "Not authorized"))
			return
		}

		key := scope + ":" + userID
		ok, retryAfter, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			Abort(c, Wrap(http.StatusInternalServerError, "Rate limiter unavailable", err))
			return
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			Abort(c, NewError(http.StatusTooManyRequests, "Rate limit exceeded, try again later"))
			return
		}
		c.Next()

		// rejected requests do not use up the quota; a failed release
		// only leaves the hit counted
		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			_ = l.Release(c.Request.Context(), key)
		}
	}
}
