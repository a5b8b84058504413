package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/api/metrics"
	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const (
	sourceSync    = "sync"
	sourceWebhook = "webhook"
)

// TrackingConfig tunes the reconciliation sweep.
type TrackingConfig struct {
	// Delay is the pause between courier calls in a sweep.
	Delay time.Duration
	// LockTTL bounds how long a crashed sweep can block the next one.
	LockTTL time.Duration
	// DedupTTL is how long a pushed scan is remembered.
	DedupTTL time.Duration
}

// TrackingService feeds courier tracking into shipments and their orders.
// Polling and webhook pushes share one ingestion path.
type TrackingService struct {
	shipments ports.ShipmentRepository
	orders    ports.OrderRepository
	courier   ports.CourierGateway
	lock      ports.SweepLock
	dedup     ports.Deduplicator
	cfg       TrackingConfig
	logger    zerolog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewTrackingService builds the service. lock and dedup may be nil, in which
// case sweeps are not exclusive and pushes are not deduplicated.
func NewTrackingService(
	shipments ports.ShipmentRepository,
	orders ports.OrderRepository,
	courier ports.CourierGateway,
	lock ports.SweepLock,
	dedup ports.Deduplicator,
	cfg TrackingConfig,
	logger zerolog.Logger,
) *TrackingService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = time.Hour
	}
	return &TrackingService{
		shipments: shipments,
		orders:    orders,
		courier:   courier,
		lock:      lock,
		dedup:     dedup,
		cfg:       cfg,
		logger:    logger.With().Str("component", "tracking_service").Logger(),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// UpdateTrackingStatus applies a normalized courier update to s and propagates
// the result to the owning order.
func (t *TrackingService) UpdateTrackingStatus(ctx context.Context, s *domain.Shipment, u domain.TrackingUpdate) (*domain.Shipment, error) {
	return t.ingest(ctx, s, u, sourceSync)
}

func (t *TrackingService) ingest(ctx context.Context, s *domain.Shipment, u domain.TrackingUpdate, source string) (*domain.Shipment, error) {
	now := t.now()
	prev := s.Status

	switch {
	case u.Status == "":
		t.logger.Warn().Str("awb", s.AWB).Str("courier_status", u.CourierStatus).Msg("unrecognised courier status, keeping current status")
	case s.Status.IsTerminal() && u.Status != s.Status:
		t.logger.Debug().Str("awb", s.AWB).Str("status", string(s.Status)).Str("courier", string(u.Status)).Msg("shipment is final, status not changed")
	default:
		s.Status = u.Status
	}

	if u.CourierStatus != "" {
		s.CourierStatus = u.CourierStatus
	}
	if len(u.History) > 0 {
		s.TrackingHistory = u.History
	}
	if u.ExpectedDelivery != nil && (s.EstimatedDelivery == nil || !s.EstimatedDelivery.Equal(*u.ExpectedDelivery)) {
		s.EstimatedDelivery = u.ExpectedDelivery
	}
	if u.PickupActualDate != nil && s.PickupActualDate == nil {
		s.PickupActualDate = u.PickupActualDate
	}
	s.LastSyncAt = &now

	orderStatus, propagate := domain.OrderStatusFor(s.Status)
	// Shipments in these statuses leave the sweep, so their order is written
	// first. A failed order write then leaves the shipment for the next sweep.
	leavesSweep := containsStatus(domain.SyncExcludedStatuses, s.Status)
	if propagate && leavesSweep {
		if err := t.orders.UpdateStatus(ctx, s.OrderID, orderStatus, deliveredAt(s, now)); err != nil {
			return nil, fmt.Errorf("update tracking status: order %s: %w", s.OrderID, err)
		}
	}

	if err := t.shipments.UpdateFields(ctx, s, ports.TrackingFields...); err != nil {
		return nil, fmt.Errorf("update tracking status: %w", err)
	}

	if s.Status != prev {
		metrics.StatusTransitionsTotal.WithLabelValues(string(s.Status), source).Inc()
		t.logger.Info().Str("awb", s.AWB).Str("from", string(prev)).Str("to", string(s.Status)).Str("source", source).Msg("shipment status changed")
	}

	if propagate && !leavesSweep {
		if err := t.orders.UpdateStatus(ctx, s.OrderID, orderStatus, nil); err != nil {
			t.logger.Error().Err(err).Str("order_id", s.OrderID).Str("order_status", string(orderStatus)).Msg("failed to propagate order status")
		}
	}

	return s, nil
}

// deliveredAt is the time of the latest scan of a delivered shipment, so
// repeated deliveries of the same state stamp the same value.
func deliveredAt(s *domain.Shipment, now time.Time) *time.Time {
	if s.Status != domain.StatusDelivered {
		return nil
	}
	if n := len(s.TrackingHistory); n > 0 && !s.TrackingHistory[n-1].Timestamp.IsZero() {
		at := s.TrackingHistory[n-1].Timestamp
		return &at
	}
	return &now
}

func containsStatus(list []domain.ShipmentStatus, s domain.ShipmentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// SyncShipment polls the courier for one shipment.
func (t *TrackingService) SyncShipment(ctx context.Context, id string) (*domain.Shipment, error) {
	s, err := t.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.syncOne(ctx, s)
}

func (t *TrackingService) syncOne(ctx context.Context, s *domain.Shipment) (*domain.Shipment, error) {
	if s.AWB == "" {
		return nil, fmt.Errorf("sync shipment %s: %w", s.ID, domain.ErrNotBooked)
	}
	u := t.courier.GetTrackingInfo(ctx, s.AWB)
	if u == nil {
		metrics.SyncShipmentsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("sync shipment %s: %w", s.ID, domain.ErrTrackingUnavailable)
	}
	out, err := t.ingest(ctx, s, *u, sourceSync)
	if err != nil {
		metrics.SyncShipmentsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.SyncShipmentsTotal.WithLabelValues("synced").Inc()
	return out, nil
}

// BulkSync syncs the given shipments one at a time, pausing between courier
// calls. Failures are collected, never fatal.
func (t *TrackingService) BulkSync(ctx context.Context, ids []string) ports.BulkResult {
	res := ports.BulkResult{Succeeded: []string{}, Failed: []ports.BulkFailure{}}
	for i, id := range ids {
		if i > 0 {
			if err := t.sleep(ctx, t.cfg.Delay); err != nil {
				res.Failed = append(res.Failed, ports.BulkFailure{ID: id, Error: err.Error()})
				continue
			}
		}
		if _, err := t.SyncShipment(ctx, id); err != nil {
			res.Failed = append(res.Failed, ports.BulkFailure{ID: id, Error: err.Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res
}

// SyncAll reconciles every booked shipment that is not delivered, cancelled or
// returned. Only one sweep runs at a time across replicas.
func (t *TrackingService) SyncAll(ctx context.Context) (*ports.SyncSummary, error) {
	if t.lock != nil {
		ok, err := t.lock.Acquire(ctx, t.cfg.LockTTL)
		switch {
		case err != nil:
			// Without the lock store the sweep still runs; overlapping sweeps
			// only cost extra courier calls.
			t.logger.Warn().Err(err).Msg("sweep lock unavailable, running unlocked")
		case !ok:
			metrics.SyncRunsTotal.WithLabelValues("skipped").Inc()
			return nil, domain.ErrSyncInProgress
		default:
			defer func() {
				if err := t.lock.Release(context.WithoutCancel(ctx)); err != nil {
					t.logger.Warn().Err(err).Msg("failed to release sweep lock")
				}
			}()
		}
	}

	summary := &ports.SyncSummary{
		StartedAt: t.now(),
		Result:    ports.BulkResult{Succeeded: []string{}, Failed: []ports.BulkFailure{}},
	}
	timer := time.Now()

	shipments, err := t.shipments.ListSyncable(ctx, domain.SyncExcludedStatuses)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sync all: %w", err)
	}
	summary.Total = len(shipments)
	t.logger.Info().Int("total", summary.Total).Msg("reconciliation started")

	for i, s := range shipments {
		if i > 0 {
			if err := t.sleep(ctx, t.cfg.Delay); err != nil {
				summary.Result.Failed = append(summary.Result.Failed, ports.BulkFailure{ID: s.ID, Error: err.Error()})
				continue
			}
		}
		if _, err := t.syncOne(ctx, s); err != nil {
			t.logger.Warn().Err(err).Str("shipment_id", s.ID).Str("awb", s.AWB).Msg("shipment sync failed")
			summary.Result.Failed = append(summary.Result.Failed, ports.BulkFailure{ID: s.ID, Error: err.Error()})
			continue
		}
		summary.Result.Succeeded = append(summary.Result.Succeeded, s.ID)
	}

	summary.Synced = len(summary.Result.Succeeded)
	summary.Failed = len(summary.Result.Failed)
	summary.FinishedAt = t.now()

	metrics.SyncRunsTotal.WithLabelValues("completed").Inc()
	metrics.SyncDuration.Observe(time.Since(timer).Seconds())
	t.logger.Info().
		Int("total", summary.Total).
		Int("synced", summary.Synced).
		Int("failed", summary.Failed).
		Msg("reconciliation finished")

	return summary, nil
}

// ApplyPush ingests one scan pushed by the courier. The scan is appended to
// the stored history; repeats of the same (awb, status, time) are skipped.
func (t *TrackingService) ApplyPush(ctx context.Context, u domain.TrackingUpdate) error {
	if u.AWB == "" {
		return domain.NewValidationError("invalid_webhook", "awb", "is required")
	}

	key := pushKey(u)
	if t.dedup != nil {
		dup, err := t.dedup.Exists(ctx, key)
		if err != nil {
			t.logger.Warn().Err(err).Str("awb", u.AWB).Msg("dedup check failed, processing anyway")
		} else if dup {
			metrics.WebhookEventsTotal.WithLabelValues("duplicate").Inc()
			t.logger.Debug().Str("awb", u.AWB).Str("courier_status", u.CourierStatus).Msg("duplicate scan skipped")
			return nil
		}
	}

	s, err := t.shipments.FindByAWB(ctx, u.AWB)
	if err != nil {
		if errors.Is(err, domain.ErrShipmentNotFound) {
			metrics.WebhookEventsTotal.WithLabelValues("invalid").Inc()
		}
		return fmt.Errorf("apply push: %w", err)
	}

	history := make([]domain.TrackingScan, 0, len(s.TrackingHistory)+len(u.History))
	history = append(history, s.TrackingHistory...)
	history = append(history, u.History...)
	u.History = history

	if _, err := t.ingest(ctx, s, u, sourceWebhook); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("failed").Inc()
		return err
	}

	if t.dedup != nil {
		if err := t.dedup.Set(ctx, key, t.cfg.DedupTTL); err != nil {
			t.logger.Warn().Err(err).Str("awb", u.AWB).Msg("failed to set dedup key")
		}
	}
	metrics.WebhookEventsTotal.WithLabelValues("accepted").Inc()
	return nil
}

func pushKey(u domain.TrackingUpdate) string {
	var ts time.Time
	if n := len(u.History); n > 0 {
		ts = u.History[n-1].Timestamp
	}
	return fmt.Sprintf("%s|%s|%d", u.AWB, u.CourierStatus, ts.UnixNano())
}

var _ ports.TrackingService = (*TrackingService)(nil)
