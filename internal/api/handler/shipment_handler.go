package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/giftkart/shipping-admin/internal/core/ports"
)

// ShipmentHandler handles the admin shipment lifecycle endpoints.
type ShipmentHandler struct {
	service ports.ShipmentService
}

func NewShipmentHandler(service ports.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

// List handles GET /admin/shipments.
//
// @Summary      List shipments
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "Comma-separated statuses"
// @Param        mode       query     string  false  "Surface or Express"
// @Param        search     query     string  false  "Partial order id or AWB"
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Param        page       query     int     false  "Page (1-based)"
// @Param        limit      query     int     false  "Page size (max 100)"
// @Success      200        {object}  listShipmentsResponse
// @Failure      400        {object}  errorResponse
// @Router       /admin/shipments [get]
func (h *ShipmentHandler) List(c echo.Context) error {
	var q listShipmentsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	in, err := toListInput(q)
	if err != nil {
		return err
	}

	res, err := h.service.ListShipments(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res))
}

// Stats handles GET /admin/shipments/stats.
//
// @Summary      Shipment counts and costs by status
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.ShipmentStats
// @Router       /admin/shipments/stats [get]
func (h *ShipmentHandler) Stats(c echo.Context) error {
	st, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Get handles GET /admin/shipments/:id.
//
// @Summary      Get a shipment
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  domain.Shipment
// @Failure      404  {object}  errorResponse
// @Router       /admin/shipments/{id} [get]
func (h *ShipmentHandler) Get(c echo.Context) error {
	s, err := h.service.GetShipment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// Create handles POST /admin/shipments.
//
// @Summary      Create a shipment for an order
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createShipmentRequest  true  "Package details"
// @Success      201   {object}  domain.Shipment
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /admin/shipments [post]
func (h *ShipmentHandler) Create(c echo.Context) error {
	by, err := actor(c)
	if err != nil {
		return err
	}
	var req createShipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s, err := h.service.CreateShipment(c.Request().Context(), toCreateInput(req, by))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s)
}

// Edit handles PATCH /admin/shipments/:id.
//
// @Summary      Edit a shipment
// @Description  Before booking any package field may change. After booking only the
// @Description  courier-editable fields are accepted, and only while the courier allows it.
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Shipment ID"
// @Param        body  body      editShipmentRequest  true  "Fields to change"
// @Success      200   {object}  domain.Shipment
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /admin/shipments/{id} [patch]
func (h *ShipmentHandler) Edit(c echo.Context) error {
	by, err := actor(c)
	if err != nil {
		return err
	}
	var req editShipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	s, err := h.service.EditShipment(c.Request().Context(), ports.EditShipmentInput{
		ID:       c.Param("id"),
		Fields:   req.Fields,
		EditedBy: by,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// Recalculate handles POST /admin/shipments/:id/recalculate.
//
// @Summary      Re-price an unbooked shipment
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  domain.Shipment
// @Failure      409  {object}  errorResponse
// @Router       /admin/shipments/{id}/recalculate [post]
func (h *ShipmentHandler) Recalculate(c echo.Context) error {
	s, err := h.service.RecalculateCost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// Approve handles POST /admin/shipments/:id/approve.
//
// @Summary      Approve and book a shipment with the courier
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  domain.Shipment
// @Failure      409  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /admin/shipments/{id}/approve [post]
func (h *ShipmentHandler) Approve(c echo.Context) error {
	by, err := actor(c)
	if err != nil {
		return err
	}
	s, err := h.service.ApproveShipment(c.Request().Context(), c.Param("id"), by)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// BulkApprove handles POST /admin/shipments/approve.
//
// @Summary      Approve several shipments
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      bulkIDsRequest  true  "Shipment IDs"
// @Success      200   {object}  bulkResponse
// @Failure      400   {object}  errorResponse
// @Router       /admin/shipments/approve [post]
func (h *ShipmentHandler) BulkApprove(c echo.Context) error {
	by, err := actor(c)
	if err != nil {
		return err
	}
	var req bulkIDsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBulkResponse(h.service.BulkApprove(c.Request().Context(), req.IDs, by)))
}

// Cancel handles POST /admin/shipments/:id/cancel.
//
// @Summary      Cancel a shipment
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  domain.Shipment
// @Failure      422  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /admin/shipments/{id}/cancel [post]
func (h *ShipmentHandler) Cancel(c echo.Context) error {
	by, err := actor(c)
	if err != nil {
		return err
	}
	s, err := h.service.CancelShipment(c.Request().Context(), c.Param("id"), by)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// Eligibility handles GET /admin/shipments/:id/eligibility.
//
// @Summary      Report whether a shipment can be edited
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  ports.EligibilityReport
// @Router       /admin/shipments/{id}/eligibility [get]
func (h *ShipmentHandler) Eligibility(c echo.Context) error {
	r, err := h.service.CheckEligibility(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}
