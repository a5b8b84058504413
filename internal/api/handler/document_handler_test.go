package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

type stubDocumentService struct {
	size string
	err  error
}

func (s *stubDocumentService) Label(_ context.Context, id, size string) (*ports.DocumentFile, error) {
	s.size = size
	if s.err != nil {
		return nil, s.err
	}
	return &ports.DocumentFile{Filename: "label-" + id + ".pdf", Content: []byte("%PDF-1.4")}, nil
}

func (s *stubDocumentService) Invoice(_ context.Context, id string) (*ports.DocumentFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ports.DocumentFile{Filename: "invoice-" + id + ".pdf", Content: []byte("%PDF-1.4")}, nil
}

func TestDocumentHandler_Label(t *testing.T) {
	svc := &stubDocumentService{}
	h := NewDocumentHandler(svc)

	c, rec := newContext(http.MethodGet, "/admin/shipments/shp-1/label?pdf_size=4R", "")
	c.SetParamNames("id")
	c.SetParamValues("shp-1")
	if err := h.Label(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="label-shp-1.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rec.Body.String() != "%PDF-1.4" || svc.size != "4R" {
		t.Fatalf("unexpected body or size: %q %q", rec.Body.String(), svc.size)
	}
}

func TestDocumentHandler_Label_InvalidSize(t *testing.T) {
	h := NewDocumentHandler(&stubDocumentService{})

	c, _ := newContext(http.MethodGet, "/admin/shipments/shp-1/label?pdf_size=A3", "")
	requireValidation(t, h.Label(c), "pdf_size")
}

func TestDocumentHandler_Invoice_NotBooked(t *testing.T) {
	h := NewDocumentHandler(&stubDocumentService{err: domain.ErrNotBooked})

	c, rec := newContext(http.MethodGet, "/admin/shipments/shp-1/invoice", "")
	if err := h.Invoice(c); err != domain.ErrNotBooked {
		t.Fatalf("expected ErrNotBooked, got %v", err)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Fatalf("no attachment header expected on failure")
	}
}
