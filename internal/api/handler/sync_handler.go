package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

// SyncHandler exposes tracking reconciliation to admins and to the external cron.
type SyncHandler struct {
	tracking     ports.TrackingService
	sweepTimeout time.Duration
	log          zerolog.Logger
}

const defaultSweepTimeout = 30 * time.Minute

// NewSyncHandler builds the handler. sweepTimeout bounds a cron-triggered
// sweep; zero means 30 minutes.
func NewSyncHandler(tracking ports.TrackingService, sweepTimeout time.Duration, log zerolog.Logger) *SyncHandler {
	if sweepTimeout <= 0 {
		sweepTimeout = defaultSweepTimeout
	}
	return &SyncHandler{tracking: tracking, sweepTimeout: sweepTimeout, log: log}
}

// SyncOne handles POST /admin/shipments/:id/sync.
//
// @Summary      Pull courier tracking for one shipment
// @Tags         sync
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  domain.Shipment
// @Failure      409  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /admin/shipments/{id}/sync [post]
func (h *SyncHandler) SyncOne(c echo.Context) error {
	s, err := h.tracking.SyncShipment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// BulkSync handles POST /admin/shipments/sync.
//
// @Summary      Pull courier tracking for several shipments
// @Tags         sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      bulkIDsRequest  true  "Shipment IDs"
// @Success      200   {object}  bulkResponse
// @Failure      400   {object}  errorResponse
// @Router       /admin/shipments/sync [post]
func (h *SyncHandler) BulkSync(c echo.Context) error {
	var req bulkIDsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBulkResponse(h.tracking.BulkSync(c.Request().Context(), req.IDs)))
}

// Cron handles POST /cron/sync-shipments. It answers 200 whatever the sweep
// outcome so the external scheduler never retries; failures go to the body
// and the log.
//
// @Summary      Reconcile every active shipment
// @Tags         sync
// @Produce      json
// @Param        X-Cron-Secret  header    string  true  "Shared cron secret"
// @Success      200            {object}  syncResponse
// @Failure      401            {object}  errorResponse
// @Router       /cron/sync-shipments [post]
func (h *SyncHandler) Cron(c echo.Context) error {
	// The sweep outlives a scheduler that hangs up mid-request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), h.sweepTimeout)
	defer cancel()

	summary, err := h.tracking.SyncAll(ctx)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		return c.JSON(http.StatusOK, syncResponse{Message: "sync already in progress"})
	case err != nil:
		h.log.Error().Err(err).Msg("cron sync failed")
		return c.JSON(http.StatusOK, syncResponse{Message: "sync failed: " + err.Error()})
	}
	return c.JSON(http.StatusOK, syncResponse{Message: "sync completed", Summary: summary})
}
