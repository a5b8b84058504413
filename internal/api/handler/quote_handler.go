package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/giftkart/shipping-admin/internal/core/ports"
)

// QuoteHandler answers pre-shipment serviceability and pricing questions.
type QuoteHandler struct {
	quotes ports.QuoteService
}

func NewQuoteHandler(quotes ports.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Serviceability handles GET /admin/serviceability/:pincode.
//
// @Summary      Check whether the courier delivers to a pincode
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        pincode  path      string  true  "Six-digit pincode"
// @Success      200      {object}  ports.Serviceability
// @Router       /admin/serviceability/{pincode} [get]
func (h *QuoteHandler) Serviceability(c echo.Context) error {
	return c.JSON(http.StatusOK, h.quotes.CheckServiceability(c.Request().Context(), c.Param("pincode")))
}

// Estimate handles GET /admin/estimates.
//
// @Summary      Estimate shipping cost and delivery time
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        pincode       query     string   true   "Destination pincode"
// @Param        weight        query     number   true   "Weight in grams"
// @Param        mode          query     string   false  "Surface or Express"
// @Param        payment_type  query     string   false  "Prepaid or COD"
// @Param        city          query     string   false  "Destination city"
// @Param        state         query     string   false  "Destination state"
// @Success      200           {object}  ports.EstimateResult
// @Failure      400           {object}  errorResponse
// @Router       /admin/estimates [get]
func (h *QuoteHandler) Estimate(c echo.Context) error {
	var q estimateQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	res, err := h.quotes.Estimate(c.Request().Context(), toEstimateInput(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
