package ports

import (
	"context"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// PickupRepository persists daily pickups.
type PickupRepository interface {
	// Reserve atomically adds count packages to the active pickup for
	// (location, date), creating it when none exists. created reports whether
	// this call inserted the record.
	Reserve(ctx context.Context, location, date, pickupTime string, count int, now time.Time) (p *domain.DailyPickup, created bool, err error)
	SetCourierPickupID(ctx context.Context, id, courierPickupID string) error
	MarkFailed(ctx context.Context, id, reason string) error
	FindActive(ctx context.Context, location, date string) (*domain.DailyPickup, error)
	// List returns pickups with from <= pickup_date <= to, newest first.
	List(ctx context.Context, from, to string) ([]*domain.DailyPickup, error)
}
