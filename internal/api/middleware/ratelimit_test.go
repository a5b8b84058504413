package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := NewEditRateLimiter(60, 2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("alice"))
	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"), "burst exhausted")
	assert.True(t, rl.Allow("bob"), "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("alice"), "one token refills per second at 60/min")
}

func TestEditRateLimiter_Reset(t *testing.T) {
	rl := NewEditRateLimiter(1, 1)
	require.True(t, rl.Allow("alice"))
	require.False(t, rl.Allow("alice"))

	rl.Reset()
	assert.True(t, rl.Allow("alice"))
}

func TestEditRateLimiter_PrunesIdleBuckets(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rl := NewEditRateLimiter(60, 1)
	rl.now = func() time.Time { return now }

	rl.Allow("alice")
	rl.Allow("bob")
	now = now.Add(pruneInterval)
	rl.Allow("carol")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "carol")
}

func TestEditRateLimiter_Middleware(t *testing.T) {
	e := echo.New()
	rl := NewEditRateLimiter(1, 1)
	handler := rl.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	call := func() int {
		req := httptest.NewRequest(http.MethodPatch, "/admin/shipments/1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("username", "alice")
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call())
	assert.Equal(t, http.StatusTooManyRequests, call())
}
