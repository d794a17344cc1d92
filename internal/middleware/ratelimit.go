package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Default rate limit: requests per client IP per window.
const (
	DefaultRateLimit  = 120
	DefaultRateWindow = time.Minute
)

type visitor struct {
	windowStart time.Time
	count       int
}

// rateLimiter is a fixed-window counter per client IP, held in process memory.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	now      func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// allow records a hit for ip and reports whether it is within the limit.
// Expired visitors are dropped lazily so the map does not grow without bound.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok || now.Sub(v.windowStart) >= rl.window {
		if len(rl.visitors) > 10000 {
			for k, old := range rl.visitors {
				if now.Sub(old.windowStart) >= rl.window {
					delete(rl.visitors, k)
				}
			}
		}
		rl.visitors[ip] = &visitor{windowStart: now, count: 1}
		return true
	}
	v.count++
	return v.count <= rl.limit
}

// RateLimiter limits each client IP to limit requests per window and answers 429 beyond it.
// Non-positive arguments fall back to DefaultRateLimit and DefaultRateWindow.
//
// The counters live in this process only; replicas each enforce their own limit.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	rl := newRateLimiter(limit, window)
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			AbortWithError(c, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
