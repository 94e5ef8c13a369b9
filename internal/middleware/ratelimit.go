package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig controls the per-client fixed-window limiter guarding the
// creation endpoints (bookings, renewals, redemptions).
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// DefaultRateLimit allows a burst of creations per client without letting a
// misbehaving client flood the pending queue.
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{Enabled: true, Limit: 20, Window: time.Minute}
}

// RateLimit returns a fixed-window limiter keyed by authenticated user (or
// client IP before auth). A nil redis client or disabled config yields a
// pass-through, and redis outages fail open: limiting is protection, not a
// correctness requirement.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		subject := c.ClientIP()
		if userID, ok := c.Get("userID"); ok {
			if s, ok := userID.(string); ok && s != "" {
				subject = s
			}
		}
		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), subject)

		ctx := c.Request.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, cfg.Window)
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			ttl, _ := rdb.TTL(ctx, key).Result()
			if ttl > 0 {
				c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Error(http.StatusTooManyRequests, "Too many requests, slow down"))
			return
		}

		c.Next()
	}
}
