package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/giftkart/shipping-admin/internal/api/handler"
	"github.com/giftkart/shipping-admin/internal/api/middleware"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

// Deps is everything the HTTP layer needs from the application.
type Deps struct {
	Shipments ports.ShipmentService
	Tracking  ports.TrackingService
	Pickups   ports.PickupService
	Documents ports.DocumentService
	Quotes    ports.QuoteService
	Auth      ports.AuthService

	PushQueue    handler.PushQueue
	EditLimiter  *middleware.EditRateLimiter
	HealthChecks map[string]handler.HealthCheck

	JWTSecret    string
	CronSecret   string
	WebhookToken string
	SweepTimeout time.Duration
	Production   bool
	Logger       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger, d.Production)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddleware("shipping"))

	shipmentHandler := handler.NewShipmentHandler(d.Shipments)
	syncHandler := handler.NewSyncHandler(d.Tracking, d.SweepTimeout, d.Logger)
	documentHandler := handler.NewDocumentHandler(d.Documents)
	pickupHandler := handler.NewPickupHandler(d.Pickups)
	quoteHandler := handler.NewQuoteHandler(d.Quotes)
	authHandler := handler.NewAuthHandler(d.Auth)
	webhookHandler := handler.NewWebhookHandler(d.PushQueue, d.Logger)
	healthHandler := handler.NewHealthHandler(d.HealthChecks)

	// --- Probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.POST("/auth/login", authHandler.Login)

	// --- Machine callers gated by shared secrets ---
	e.POST("/cron/sync-shipments", syncHandler.Cron, middleware.SharedSecret(middleware.HeaderCronSecret, d.CronSecret))
	e.POST("/webhooks/delhivery", webhookHandler.Delhivery, middleware.SharedSecret(middleware.HeaderWebhookToken, d.WebhookToken))

	// --- Admin API ---
	admin := e.Group("/admin", middleware.Auth(d.JWTSecret))
	anyRole := middleware.Staff()
	adminOnly := middleware.AdminOnly()

	admin.GET("/shipments", shipmentHandler.List, anyRole)
	admin.GET("/shipments/stats", shipmentHandler.Stats, anyRole)
	admin.GET("/shipments/:id", shipmentHandler.Get, anyRole)
	admin.GET("/shipments/:id/eligibility", shipmentHandler.Eligibility, anyRole)
	admin.GET("/shipments/:id/label", documentHandler.Label, anyRole)
	admin.GET("/shipments/:id/invoice", documentHandler.Invoice, anyRole)
	admin.POST("/shipments/:id/sync", syncHandler.SyncOne, anyRole)
	admin.POST("/shipments/sync", syncHandler.BulkSync, anyRole)
	admin.GET("/serviceability/:pincode", quoteHandler.Serviceability, anyRole)
	admin.GET("/estimates", quoteHandler.Estimate, anyRole)
	admin.GET("/pickups", pickupHandler.List, anyRole)

	admin.POST("/shipments", shipmentHandler.Create, adminOnly)
	admin.PATCH("/shipments/:id", shipmentHandler.Edit, adminOnly, d.EditLimiter.Middleware())
	admin.POST("/shipments/:id/recalculate", shipmentHandler.Recalculate, adminOnly)
	admin.POST("/shipments/:id/approve", shipmentHandler.Approve, adminOnly)
	admin.POST("/shipments/approve", shipmentHandler.BulkApprove, adminOnly)
	admin.POST("/shipments/:id/cancel", shipmentHandler.Cancel, adminOnly)
	admin.POST("/pickups", pickupHandler.Schedule, adminOnly)
	admin.POST("/users", authHandler.Register, adminOnly)

	return e
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
