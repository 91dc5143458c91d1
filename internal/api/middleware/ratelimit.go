package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sudharsanv06/N-queens-game-sub001/pkg/logger"
	"github.com/Sudharsanv06/N-queens-game-sub001/pkg/ratelimit"
)

// RateLimitConfig holds rate limit configuration for the in-process
// token-bucket limiter.
type RateLimitConfig struct {
	Capacity   int64                     // burst size
	RefillRate int64                     // requests per second
	KeyFunc    func(*gin.Context) string // rate limit key extractor
}

// RedisRateLimitConfig configures the Redis-backed limiter used when the
// limit must hold across instances.
type RedisRateLimitConfig struct {
	Limiter *ratelimit.RedisLimiter
	Limit   int           // max requests per window
	Window  time.Duration // window size
	KeyFunc func(*gin.Context) string
}

// DefaultKeyFunc uses the player identity when authenticated, otherwise
// the client IP.
func DefaultKeyFunc(c *gin.Context) string {
	if playerID, exists := c.Get("playerId"); exists {
		return fmt.Sprintf("player:%v", playerID)
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// IPKeyFunc uses only the client IP (public endpoints).
func IPKeyFunc(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// RateLimit creates an in-process rate limiting middleware.
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	limiter := ratelimit.NewLimiter(config.Capacity, config.RefillRate)

	if config.KeyFunc == nil {
		config.KeyFunc = DefaultKeyFunc
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(config.Capacity, 10))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RedisRateLimit creates a Redis-backed rate limiting middleware. Redis
// being unreachable fails open: a limiter outage must not take the API
// down with it.
func RedisRateLimit(config RedisRateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = DefaultKeyFunc
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		allowed, info, err := config.Limiter.Allow(c.Request.Context(), key, config.Limit, config.Window)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request",
				"key", key,
				"error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(time.Until(info.ResetTime).Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
