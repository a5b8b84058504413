package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

func TestQuoteService_Estimate(t *testing.T) {
	svc := NewQuoteService(newStubCourier(), ShipmentConfig{OriginPincode: "560001", OriginState: "KA"}, zerolog.Nop())
	svc.now = clock

	res, err := svc.Estimate(context.Background(), ports.EstimateInput{
		DestinationPincode: "400001",
		WeightGrams:        750,
		Mode:               domain.ModeExpress,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !res.Serviceability.Serviceable {
		t.Errorf("expected serviceable destination")
	}
	if res.Selected.Mode != domain.ModeExpress || res.Selected.Amount != 160 {
		t.Errorf("unexpected selected quote: %+v", res.Selected)
	}
	if res.Alternate.Mode != domain.ModeSurface || res.Alternate.Amount != 90 {
		t.Errorf("unexpected alternate quote: %+v", res.Alternate)
	}
	if res.TAT.EstimatedDays != 2 {
		t.Errorf("expected 2 days for express, got %d", res.TAT.EstimatedDays)
	}
}

func TestQuoteService_EstimateValidation(t *testing.T) {
	svc := NewQuoteService(newStubCourier(), ShipmentConfig{}, zerolog.Nop())

	for name, in := range map[string]ports.EstimateInput{
		"short pincode": {DestinationPincode: "4000", WeightGrams: 500},
		"zero weight":   {DestinationPincode: "400001"},
		"bad mode":      {DestinationPincode: "400001", WeightGrams: 500, Mode: "Air"},
		"bad payment":   {DestinationPincode: "400001", WeightGrams: 500, PaymentMode: "Barter"},
	} {
		if _, err := svc.Estimate(context.Background(), in); !domain.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}
