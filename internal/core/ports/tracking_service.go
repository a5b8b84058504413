package ports

import (
	"context"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// SyncSummary is the outcome of one reconciliation sweep.
type SyncSummary struct {
	Total      int        `json:"total"`
	Synced     int        `json:"synced"`
	Failed     int        `json:"failed"`
	Result     BulkResult `json:"result"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// TrackingService ingests courier tracking into shipments and orders.
type TrackingService interface {
	// UpdateTrackingStatus is the single ingestion path for polled and pushed updates.
	UpdateTrackingStatus(ctx context.Context, s *domain.Shipment, u domain.TrackingUpdate) (*domain.Shipment, error)
	SyncShipment(ctx context.Context, id string) (*domain.Shipment, error)
	BulkSync(ctx context.Context, ids []string) BulkResult
	// SyncAll reconciles every booked, non-final shipment. It returns
	// domain.ErrSyncInProgress when another sweep holds the lock.
	SyncAll(ctx context.Context) (*SyncSummary, error)
	// ApplyPush ingests a courier webhook scan for u.AWB.
	ApplyPush(ctx context.Context, u domain.TrackingUpdate) error
}

// SchedulePickupInput asks for a pickup. Zero values fall back to the
// configured warehouse, tomorrow, and the default pickup time.
type SchedulePickupInput struct {
	Location     string
	Date         string
	Time         string
	PackageCount int
}

// PickupService aggregates pickups per location and day.
type PickupService interface {
	SchedulePickup(ctx context.Context, input SchedulePickupInput) (*domain.DailyPickup, error)
	ListPickups(ctx context.Context, from, to string) ([]*domain.DailyPickup, error)
}

// DocumentFile is a PDF ready to stream.
type DocumentFile struct {
	Filename string
	Content  []byte
}

// DocumentService fetches courier documents for booked shipments.
type DocumentService interface {
	Label(ctx context.Context, shipmentID, pdfSize string) (*DocumentFile, error)
	Invoice(ctx context.Context, shipmentID string) (*DocumentFile, error)
}

// EstimateInput prices a hypothetical parcel.
type EstimateInput struct {
	DestinationPincode string
	DestinationCity    string
	DestinationState   string
	WeightGrams        float64
	PaymentMode        domain.PaymentMode
	Mode               domain.ShippingMode
}

// EstimateResult compares both modes for one destination.
type EstimateResult struct {
	Serviceability Serviceability `json:"serviceability"`
	Selected       CostEstimate   `json:"selected"`
	Alternate      CostEstimate   `json:"alternate"`
	TAT            TATEstimate    `json:"tat"`
}

// QuoteService answers serviceability and pricing questions.
type QuoteService interface {
	CheckServiceability(ctx context.Context, pincode string) Serviceability
	Estimate(ctx context.Context, input EstimateInput) (*EstimateResult, error)
}
