package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/giftkart/shipping-admin/internal/api/metrics"
)

const pruneInterval = 10 * time.Minute

// EditRateLimiter is a per-caller token bucket set. Callers are keyed by the
// authenticated username, falling back to the client IP.
type EditRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	rate      rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

// NewEditRateLimiter allows perMinute requests per caller with the given burst.
func NewEditRateLimiter(perMinute, burst int) *EditRateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &EditRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow consumes one token for key.
func (rl *EditRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) >= pruneInterval {
		rl.prune(now)
	}

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l.AllowN(now, 1)
}

// Reset forgets every caller.
func (rl *EditRateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiters = make(map[string]*rate.Limiter)
}

// prune drops buckets that have refilled completely; they carry no state.
func (rl *EditRateLimiter) prune(now time.Time) {
	for key, l := range rl.limiters {
		if l.TokensAt(now) >= float64(rl.burst) {
			delete(rl.limiters, key)
		}
	}
	rl.lastPrune = now
}

// Middleware rejects callers over their budget with 429.
func (rl *EditRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get("username").(string)
			if key == "" {
				key = c.RealIP()
			}
			if !rl.Allow(key) {
				metrics.EditsRateLimitedTotal.Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many edit requests, try again later")
			}
			return next(c)
		}
	}
}
