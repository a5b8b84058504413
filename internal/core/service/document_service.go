package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

var labelSizes = map[string]bool{"A4": true, "4R": true}

// DocumentService fetches labels and invoices for booked shipments.
type DocumentService struct {
	shipments ports.ShipmentRepository
	courier   ports.CourierGateway
	logger    zerolog.Logger
}

func NewDocumentService(shipments ports.ShipmentRepository, courier ports.CourierGateway, logger zerolog.Logger) *DocumentService {
	return &DocumentService{
		shipments: shipments,
		courier:   courier,
		logger:    logger.With().Str("component", "document_service").Logger(),
	}
}

// Label returns the shipping label PDF. pdfSize is A4 (default) or 4R.
func (d *DocumentService) Label(ctx context.Context, shipmentID, pdfSize string) (*ports.DocumentFile, error) {
	if pdfSize == "" {
		pdfSize = "A4"
	}
	if !labelSizes[pdfSize] {
		return nil, domain.NewValidationError("invalid_pdf_size", "pdf_size", "must be A4 or 4R")
	}

	s, err := d.booked(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	doc, err := d.courier.GenerateLabel(ctx, s.AWB, pdfSize)
	if err != nil {
		return nil, fmt.Errorf("label: %w", err)
	}
	content, err := d.content(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("label: %w", err)
	}
	if doc.URL != "" && s.LabelURL != doc.URL {
		s.LabelURL = doc.URL
		d.remember(ctx, s, ports.FieldLabelURL)
	}
	return &ports.DocumentFile{Filename: fmt.Sprintf("label-%s.pdf", s.AWB), Content: content}, nil
}

// Invoice returns the tax invoice PDF.
func (d *DocumentService) Invoice(ctx context.Context, shipmentID string) (*ports.DocumentFile, error) {
	s, err := d.booked(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	doc, err := d.courier.GenerateInvoice(ctx, s.AWB)
	if err != nil {
		return nil, fmt.Errorf("invoice: %w", err)
	}
	content, err := d.content(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("invoice: %w", err)
	}
	if doc.URL != "" && s.InvoiceURL != doc.URL {
		s.InvoiceURL = doc.URL
		d.remember(ctx, s, ports.FieldInvoiceURL)
	}
	return &ports.DocumentFile{Filename: fmt.Sprintf("invoice-%s.pdf", s.AWB), Content: content}, nil
}

func (d *DocumentService) booked(ctx context.Context, id string) (*domain.Shipment, error) {
	s, err := d.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.AWB == "" {
		return nil, fmt.Errorf("shipment %s: %w", id, domain.ErrNotBooked)
	}
	return s, nil
}

// content prefers the inline PDF and downloads the URL otherwise.
func (d *DocumentService) content(ctx context.Context, doc *ports.Document) ([]byte, error) {
	if len(doc.Content) > 0 {
		return doc.Content, nil
	}
	if doc.URL == "" {
		return nil, domain.ErrDocumentUnavailable
	}
	body, err := d.courier.FetchDocument(ctx, doc.URL)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, domain.ErrDocumentUnavailable
	}
	return body, nil
}

// remember stores a refreshed document URL and nothing else; the row may have
// been synced while the courier was generating the PDF. Signed URLs expire,
// so this is informational and a failure is only logged.
func (d *DocumentService) remember(ctx context.Context, s *domain.Shipment, field ports.ShipmentField) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := d.shipments.UpdateFields(ctx, s, field); err != nil {
		d.logger.Warn().Err(err).Str("shipment_id", s.ID).Msg("failed to store document url")
	}
}

var _ ports.DocumentService = (*DocumentService)(nil)
