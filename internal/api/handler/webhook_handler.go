package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/api/metrics"
	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/infrastructure/delhivery"
	"github.com/giftkart/shipping-admin/internal/infrastructure/queue"
)

// PushQueue accepts tracking updates for asynchronous, per-AWB ordered processing.
type PushQueue interface {
	Enqueue(u domain.TrackingUpdate) error
}

// WebhookHandler receives courier status pushes.
type WebhookHandler struct {
	queue PushQueue
	log   zerolog.Logger
}

func NewWebhookHandler(q PushQueue, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{queue: q, log: log}
}

// Delhivery handles POST /webhooks/delhivery.
//
// @Summary      Receive a courier scan push
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Token  header    string                  true  "Shared webhook token"
// @Param        body             body      delhivery.PushPayload   true  "Scan"
// @Success      202              {object}  acceptedResponse
// @Failure      400              {object}  errorResponse
// @Failure      503              {object}  errorResponse
// @Router       /webhooks/delhivery [post]
func (h *WebhookHandler) Delhivery(c echo.Context) error {
	var payload delhivery.PushPayload
	if err := c.Bind(&payload); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	u := payload.TrackingUpdate()
	if u.AWB == "" {
		metrics.WebhookEventsTotal.WithLabelValues("invalid").Inc()
		return domain.NewValidationError("invalid_request", "awb", "is required")
	}

	if err := h.queue.Enqueue(u); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
			h.log.Warn().Str("awb", u.AWB).Msg("webhook queue full, asking courier to retry")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "queue full, retry later")
		}
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "accepted"})
}
