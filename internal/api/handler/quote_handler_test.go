package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

type stubQuoteService struct {
	in ports.EstimateInput
}

func (s *stubQuoteService) CheckServiceability(_ context.Context, pincode string) ports.Serviceability {
	return ports.Serviceability{Pincode: pincode, Serviceable: pincode == "110001"}
}

func (s *stubQuoteService) Estimate(_ context.Context, in ports.EstimateInput) (*ports.EstimateResult, error) {
	s.in = in
	return &ports.EstimateResult{}, nil
}

func TestQuoteHandler_Serviceability(t *testing.T) {
	h := NewQuoteHandler(&stubQuoteService{})

	c, rec := newContext(http.MethodGet, "/admin/serviceability/110001", "")
	c.SetParamNames("pincode")
	c.SetParamValues("110001")
	if err := h.Serviceability(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp ports.Serviceability
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Serviceable || resp.Pincode != "110001" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestQuoteHandler_Estimate(t *testing.T) {
	svc := &stubQuoteService{}
	h := NewQuoteHandler(svc)

	c, rec := newContext(http.MethodGet, "/admin/estimates?pincode=560001&weight=1200&mode=Express&payment_type=cod", "")
	if err := h.Estimate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.in.DestinationPincode != "560001" || svc.in.WeightGrams != 1200 ||
		svc.in.Mode != domain.ModeExpress || svc.in.PaymentMode != domain.PaymentCOD {
		t.Fatalf("unexpected input: %+v", svc.in)
	}
}

func TestQuoteHandler_Estimate_Validation(t *testing.T) {
	h := NewQuoteHandler(&stubQuoteService{})

	c, _ := newContext(http.MethodGet, "/admin/estimates?pincode=56A001&weight=0", "")
	err := h.Estimate(c)
	requireValidation(t, err, "pincode")
	requireValidation(t, err, "weight")
}
