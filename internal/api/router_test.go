package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftkart/shipping-admin/internal/api/handler"
	"github.com/giftkart/shipping-admin/internal/api/middleware"
)

// The Prometheus middleware registers collectors globally, so the router is
// built once for the whole file.
var testRouter = NewRouter(Deps{
	EditLimiter:  middleware.NewEditRateLimiter(10, 5),
	HealthChecks: map[string]handler.HealthCheck{},
	JWTSecret:    "secret",
	CronSecret:   "cron",
	WebhookToken: "hook",
	Logger:       zerolog.Nop(),
})

func TestRouter_RegistersRoutes(t *testing.T) {
	routes := map[string]bool{}
	for _, r := range testRouter.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /auth/login",
		"GET /admin/shipments",
		"GET /admin/shipments/stats",
		"GET /admin/shipments/:id",
		"POST /admin/shipments",
		"PATCH /admin/shipments/:id",
		"POST /admin/shipments/:id/recalculate",
		"POST /admin/shipments/:id/approve",
		"POST /admin/shipments/approve",
		"POST /admin/shipments/:id/cancel",
		"POST /admin/shipments/:id/sync",
		"POST /admin/shipments/sync",
		"GET /admin/shipments/:id/label",
		"GET /admin/shipments/:id/invoice",
		"GET /admin/shipments/:id/eligibility",
		"POST /admin/pickups",
		"GET /admin/pickups",
		"GET /admin/serviceability/:pincode",
		"GET /admin/estimates",
		"POST /admin/users",
		"POST /cron/sync-shipments",
		"POST /webhooks/delhivery",
		"GET /health",
		"GET /health/ready",
		"GET /metrics",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}

func TestRouter_Gates(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		header string
		value  string
		want   int
	}{
		{"admin without token", http.MethodGet, "/admin/shipments", "", "", http.StatusUnauthorized},
		{"cron without secret", http.MethodPost, "/cron/sync-shipments", "", "", http.StatusUnauthorized},
		{"webhook with wrong token", http.MethodPost, "/webhooks/delhivery", "X-Webhook-Token", "nope", http.StatusUnauthorized},
		{"liveness", http.MethodGet, "/health", "", "", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			testRouter.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
		})
	}
}

func TestRouter_OperatorCannotMutate(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "u-2",
		"username": "olga",
		"role":     "operator",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/shipments/sh-1/approve", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	testRouter.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"access forbidden"}`, rec.Body.String())
}
