package ports

import (
	"context"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// ListShipmentsFilter carries all query parameters for listing shipments.
type ListShipmentsFilter struct {
	Statuses []domain.ShipmentStatus // optional: status IN (...)
	Mode     domain.ShippingMode     // optional
	Search   string                  // optional: partial match on order_id or awb
	DateFrom time.Time               // optional: created_at >= DateFrom
	DateTo   time.Time               // optional: created_at <= DateTo
	Page     int                     // 1-based
	Limit    int                     // capped at 100 by the service
}

// ShipmentStats aggregates shipments by status.
type ShipmentStats struct {
	Total              int64                           `json:"total"`
	ByStatus           map[domain.ShipmentStatus]int64 `json:"by_status"`
	TotalEstimatedCost float64                         `json:"total_estimated_cost"`
	TotalActualCost    float64                         `json:"total_actual_cost"`
}

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	// Create inserts s. It returns domain.ErrDuplicateShipment when the order
	// already has a shipment.
	Create(ctx context.Context, s *domain.Shipment) error
	FindByID(ctx context.Context, id string) (*domain.Shipment, error)
	FindByOrderID(ctx context.Context, orderID string) (*domain.Shipment, error)
	FindByAWB(ctx context.Context, awb string) (*domain.Shipment, error)
	List(ctx context.Context, filter ListShipmentsFilter) ([]*domain.Shipment, int64, error)
	// ListSyncable returns shipments with an AWB whose status is not in excluded.
	ListSyncable(ctx context.Context, excluded []domain.ShipmentStatus) ([]*domain.Shipment, error)
	// Update replaces the stored shipment and stamps updated_at.
	Update(ctx context.Context, s *domain.Shipment) error
	// UpdateFields writes only the named fields of s and stamps updated_at.
	// Fields written concurrently by other callers are left as stored.
	UpdateFields(ctx context.Context, s *domain.Shipment, fields ...ShipmentField) error
	// MarkBookingFailed atomically returns the shipment to pending_review,
	// clears the approval stamps, records reason and increments retry_count.
	// It returns the stored row after the update.
	MarkBookingFailed(ctx context.Context, id, reason string, at time.Time) (*domain.Shipment, error)
	Stats(ctx context.Context) (*ShipmentStats, error)
}
