package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

func newPickupSvc(repo *stubPickupRepo, courier *stubCourier) *PickupService {
	svc := NewPickupService(repo, courier, PickupConfig{Location: "GiftKart BLR"}, zerolog.Nop())
	svc.now = clock
	return svc
}

func TestPickupService_SameDayIsIdempotent(t *testing.T) {
	repo := newStubPickupRepo()
	courier := newStubCourier()
	svc := newPickupSvc(repo, courier)

	first, err := svc.SchedulePickup(context.Background(), ports.SchedulePickupInput{Date: "2024-03-11", PackageCount: 2})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	second, err := svc.SchedulePickup(context.Background(), ports.SchedulePickupInput{Date: "2024-03-11", PackageCount: 3})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected the same pickup, got %s and %s", first.ID, second.ID)
	}
	if len(repo.pickups) != 1 {
		t.Errorf("expected exactly one pickup row, got %d", len(repo.pickups))
	}
	if second.ExpectedPackageCount != 5 {
		t.Errorf("expected 5 packages, got %d", second.ExpectedPackageCount)
	}
	if len(courier.pickupCalls) != 1 {
		t.Errorf("expected one courier request, got %d", len(courier.pickupCalls))
	}
	if first.CourierPickupID != "PU-2024-03-11" {
		t.Errorf("expected courier pickup id stored, got %q", first.CourierPickupID)
	}
}

func TestPickupService_Defaults(t *testing.T) {
	courier := newStubCourier()
	svc := newPickupSvc(newStubPickupRepo(), courier)

	p, err := svc.SchedulePickup(context.Background(), ports.SchedulePickupInput{})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if p.PickupLocation != "GiftKart BLR" || p.PickupDate != "2024-03-11" || p.PickupTime != "11:00:00" || p.ExpectedPackageCount != 1 {
		t.Errorf("unexpected defaults: %+v", p)
	}
}

func TestPickupService_CourierFailureMarksFailed(t *testing.T) {
	repo := newStubPickupRepo()
	courier := newStubCourier()
	courier.pickupErr = errCourierDown
	svc := newPickupSvc(repo, courier)

	if _, err := svc.SchedulePickup(context.Background(), ports.SchedulePickupInput{Date: "2024-03-11"}); !errors.Is(err, errCourierDown) {
		t.Fatalf("expected courier error, got %v", err)
	}
	for _, p := range repo.pickups {
		if p.Status != domain.PickupFailed {
			t.Errorf("expected failed pickup, got %s", p.Status)
		}
	}

	// The next request starts a fresh pickup and asks the courier again.
	courier.pickupErr = nil
	p, err := svc.SchedulePickup(context.Background(), ports.SchedulePickupInput{Date: "2024-03-11"})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if p.Status != domain.PickupActive || len(courier.pickupCalls) != 2 {
		t.Errorf("expected a new active pickup, got %+v after %d calls", p, len(courier.pickupCalls))
	}
}

func TestPickupService_Validation(t *testing.T) {
	svc := newPickupSvc(newStubPickupRepo(), newStubCourier())

	for name, in := range map[string]ports.SchedulePickupInput{
		"bad date":       {Date: "11-03-2024"},
		"past date":      {Date: "2024-03-09"},
		"bad time":       {Date: "2024-03-11", Time: "11am"},
		"negative count": {Date: "2024-03-11", PackageCount: -1},
	} {
		if _, err := svc.SchedulePickup(context.Background(), in); !domain.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestPickupService_ListPickups(t *testing.T) {
	repo := newStubPickupRepo()
	svc := newPickupSvc(repo, newStubCourier())
	_, _ = svc.SchedulePickup(context.Background(), ports.SchedulePickupInput{Date: "2024-03-11"})
	_, _ = svc.SchedulePickup(context.Background(), ports.SchedulePickupInput{Date: "2024-04-30"})

	got, err := svc.ListPickups(context.Background(), "", "")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(got) != 1 || got[0].PickupDate != "2024-03-11" {
		t.Errorf("expected only the pickup within a week, got %+v", got)
	}

	if _, err := svc.ListPickups(context.Background(), "2024-03-12", "2024-03-01"); !domain.IsValidation(err) {
		t.Errorf("expected validation error for reversed range, got %v", err)
	}
}
