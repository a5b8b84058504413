package service

import (
	"context"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// Calendar dates (delivery estimates, pickup days) follow the warehouse's
// local day, not UTC.
var indiaTime = time.FixedZone("IST", 5*3600+30*60)

func startOfDay(t time.Time) time.Time {
	t = t.In(indiaTime)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, indiaTime)
}

// nextDay returns midnight of the calendar day after now.
func nextDay(now time.Time) time.Time {
	return startOfDay(now).AddDate(0, 0, 1)
}

func pickupDate(t time.Time) string {
	return t.In(indiaTime).Format(domain.PickupDateLayout)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
