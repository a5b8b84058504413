package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/giftkart/shipping-admin/internal/core/ports"
)

type PickupHandler struct {
	pickups ports.PickupService
}

func NewPickupHandler(pickups ports.PickupService) *PickupHandler {
	return &PickupHandler{pickups: pickups}
}

// Schedule handles POST /admin/pickups.
//
// @Summary      Schedule the daily courier pickup
// @Description  Idempotent per location and date: a second call reuses the active pickup.
// @Tags         pickups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      schedulePickupRequest  true  "Pickup details"
// @Success      200   {object}  domain.DailyPickup
// @Failure      400   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /admin/pickups [post]
func (h *PickupHandler) Schedule(c echo.Context) error {
	var req schedulePickupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.pickups.SchedulePickup(c.Request().Context(), ports.SchedulePickupInput{
		Location:     req.Location,
		Date:         req.Date,
		Time:         req.Time,
		PackageCount: req.PackageCount,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// List handles GET /admin/pickups.
//
// @Summary      List daily pickups
// @Tags         pickups
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "YYYY-MM-DD"
// @Param        to    query     string  false  "YYYY-MM-DD"
// @Success      200   {array}   domain.DailyPickup
// @Router       /admin/pickups [get]
func (h *PickupHandler) List(c echo.Context) error {
	var q listPickupsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	items, err := h.pickups.ListPickups(c.Request().Context(), q.From, q.To)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}
