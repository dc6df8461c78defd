package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/contactdesk/backend/internal/constants"
	"github.com/contactdesk/backend/pkg/logger"
	"github.com/contactdesk/backend/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter is a sliding-window limiter keyed by client IP, used when no
// Redis backend is available.
type RateLimiter struct {
	tokens     map[string][]time.Time
	maxRequest int
	duration   time.Duration
	mu         sync.Mutex
}

func NewRateLimiter(maxRequest int, duration time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     make(map[string][]time.Time),
		maxRequest: maxRequest,
		duration:   duration,
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	for ip, tokens := range rl.tokens {
		var valid []time.Time
		for _, t := range tokens {
			if now.Sub(t) <= rl.duration {
				valid = append(valid, t)
			}
		}
		if len(valid) > 0 {
			rl.tokens[ip] = valid
		} else {
			delete(rl.tokens, ip)
		}
	}
}

// Allow records one request for the key and reports whether it stays
// within the window.
func (rl *RateLimiter) Allow(key string, now time.Time) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup(now)

	tokens := rl.tokens[key]
	if len(tokens) >= rl.maxRequest {
		return false, 0
	}

	rl.tokens[key] = append(tokens, now)
	return true, rl.maxRequest - len(tokens) - 1
}

// RateLimit limits per-client request rates. With Redis enabled the counter
// is a shared fixed window, so the limit holds across replicas; otherwise an
// in-process sliding window is used.
func RateLimit(rdb redis.Client, maxRequest int, duration time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(maxRequest, duration)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		var allowed bool
		var remaining int

		if rdb.IsEnabled() {
			key := fmt.Sprintf("%s%s", constants.CacheKeyRate, ip)
			count, err := rdb.IncrWindow(c.Request.Context(), key, duration)
			if err != nil {
				// Redis trouble must not take the API down; fall back to
				// the local limiter for this request.
				logger.GetLogger().Warn("Rate limit counter unavailable",
					zap.String("client_ip", ip),
					zap.Error(err),
				)
				allowed, remaining = limiter.Allow(ip, now)
			} else {
				allowed = count <= int64(maxRequest)
				remaining = maxRequest - int(count)
				if remaining < 0 {
					remaining = 0
				}
			}
		} else {
			allowed, remaining = limiter.Allow(ip, now)
		}

		if !allowed {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("max_requests", maxRequest),
				zap.Duration("duration", duration),
			)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"message":     "Rate limit exceeded",
				"retry_after": duration.Seconds(),
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequest))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", now.Add(duration).Unix()))

		c.Next()
	}
}
