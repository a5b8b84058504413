package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/api/metrics"
	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const (
	defaultPickupTime   = "11:00:00"
	defaultPickupWindow = 7 // days either side of today for ListPickups
)

// PickupConfig names the default warehouse and collection time.
type PickupConfig struct {
	Location string
	Time     string
}

// PickupService keeps one courier pickup per location and day.
type PickupService struct {
	repo    ports.PickupRepository
	courier ports.CourierGateway
	cfg     PickupConfig
	logger  zerolog.Logger
	now     func() time.Time
}

func NewPickupService(repo ports.PickupRepository, courier ports.CourierGateway, cfg PickupConfig, logger zerolog.Logger) *PickupService {
	if cfg.Time == "" {
		cfg.Time = defaultPickupTime
	}
	return &PickupService{
		repo:    repo,
		courier: courier,
		cfg:     cfg,
		logger:  logger.With().Str("component", "pickup_service").Logger(),
		now:     time.Now,
	}
}

// SchedulePickup adds the packages to the active pickup for the location and
// date. Only the call that creates the record asks the courier for a pickup;
// later calls just raise the expected package count.
func (p *PickupService) SchedulePickup(ctx context.Context, input ports.SchedulePickupInput) (*domain.DailyPickup, error) {
	location := strings.TrimSpace(input.Location)
	if location == "" {
		location = p.cfg.Location
	}
	if location == "" {
		return nil, domain.NewValidationError("invalid_pickup", "location", "is required")
	}

	date := input.Date
	if date == "" {
		date = pickupDate(nextDay(p.now()))
	}
	day, err := time.ParseInLocation(domain.PickupDateLayout, date, indiaTime)
	if err != nil {
		return nil, domain.NewValidationError("invalid_pickup", "date", "must be YYYY-MM-DD")
	}
	if day.Before(startOfDay(p.now())) {
		return nil, domain.NewValidationError("invalid_pickup", "date", "must not be in the past")
	}

	pickupTime := input.Time
	if pickupTime == "" {
		pickupTime = p.cfg.Time
	}
	if _, err := time.Parse("15:04:05", pickupTime); err != nil {
		return nil, domain.NewValidationError("invalid_pickup", "time", "must be HH:MM:SS")
	}

	count := input.PackageCount
	if count == 0 {
		count = 1
	}
	if count < 0 {
		return nil, domain.NewValidationError("invalid_pickup", "package_count", "must be at least 1")
	}

	pickup, created, err := p.repo.Reserve(ctx, location, date, pickupTime, count, p.now())
	if err != nil {
		return nil, fmt.Errorf("schedule pickup: %w", err)
	}
	if !created {
		metrics.PickupsTotal.WithLabelValues("reused").Inc()
		p.logger.Info().
			Str("location", location).
			Str("date", date).
			Int("expected_packages", pickup.ExpectedPackageCount).
			Msg("added packages to existing pickup")
		return pickup, nil
	}

	res, err := p.courier.SchedulePickup(ctx, ports.PickupSchedule{
		Location:     location,
		Date:         date,
		Time:         pickupTime,
		PackageCount: pickup.ExpectedPackageCount,
	})
	if err != nil {
		metrics.PickupsTotal.WithLabelValues("failed").Inc()
		if mErr := p.repo.MarkFailed(ctx, pickup.ID, err.Error()); mErr != nil {
			p.logger.Error().Err(mErr).Str("pickup_id", pickup.ID).Msg("failed to mark pickup failed")
		}
		return nil, fmt.Errorf("schedule pickup: %w", err)
	}

	if res.PickupID != "" {
		if err := p.repo.SetCourierPickupID(ctx, pickup.ID, res.PickupID); err != nil {
			p.logger.Error().Err(err).Str("pickup_id", pickup.ID).Msg("failed to store courier pickup id")
		}
		pickup.CourierPickupID = res.PickupID
	}

	metrics.PickupsTotal.WithLabelValues("created").Inc()
	p.logger.Info().
		Str("location", location).
		Str("date", date).
		Str("courier_pickup_id", res.PickupID).
		Bool("already_existed", res.AlreadyExists).
		Msg("pickup scheduled")
	return pickup, nil
}

// ListPickups returns pickups between from and to inclusive. Empty bounds
// default to a week either side of today.
func (p *PickupService) ListPickups(ctx context.Context, from, to string) ([]*domain.DailyPickup, error) {
	today := startOfDay(p.now())
	if from == "" {
		from = pickupDate(today.AddDate(0, 0, -defaultPickupWindow))
	}
	if to == "" {
		to = pickupDate(today.AddDate(0, 0, defaultPickupWindow))
	}
	for field, v := range map[string]string{"from": from, "to": to} {
		if _, err := time.Parse(domain.PickupDateLayout, v); err != nil {
			return nil, domain.NewValidationError("invalid_date", field, "must be YYYY-MM-DD")
		}
	}
	if from > to {
		return nil, domain.NewValidationError("invalid_date", "from", "must not be after to")
	}
	return p.repo.List(ctx, from, to)
}

var _ ports.PickupService = (*PickupService)(nil)
