package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const pdfContentType = "application/pdf"

// DocumentHandler streams courier labels and invoices as PDF attachments.
type DocumentHandler struct {
	documents ports.DocumentService
}

func NewDocumentHandler(documents ports.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Label handles GET /admin/shipments/:id/label.
//
// @Summary      Download the shipping label
// @Tags         documents
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id        path   string  true   "Shipment ID"
// @Param        pdf_size  query  string  false  "A4 or 4R"  Enums(A4, 4R)
// @Success      200
// @Failure      400  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /admin/shipments/{id}/label [get]
func (h *DocumentHandler) Label(c echo.Context) error {
	size := c.QueryParam("pdf_size")
	switch size {
	case "", "A4", "4R":
	default:
		return domain.NewValidationError("invalid_request", "pdf_size", "must be one of: A4 4R")
	}

	doc, err := h.documents.Label(c.Request().Context(), c.Param("id"), size)
	if err != nil {
		return err
	}
	return attachment(c, doc)
}

// Invoice handles GET /admin/shipments/:id/invoice.
//
// @Summary      Download the commercial invoice
// @Tags         documents
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  string  true  "Shipment ID"
// @Success      200
// @Failure      409  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /admin/shipments/{id}/invoice [get]
func (h *DocumentHandler) Invoice(c echo.Context) error {
	doc, err := h.documents.Invoice(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return attachment(c, doc)
}

func attachment(c echo.Context, doc *ports.DocumentFile) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Blob(http.StatusOK, pdfContentType, doc.Content)
}
