package ports

import (
	"context"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/eligibility"
)

// CreateShipmentInput carries all data needed to create a new shipment.
type CreateShipmentInput struct {
	OrderID      string
	WeightGrams  float64
	Dimensions   domain.Dimensions
	PackageCount int
	ShippingMode domain.ShippingMode
	// PaymentMode defaults to the order's payment method when empty.
	PaymentMode domain.PaymentMode
	// CODAmount defaults to the order total for COD shipments when nil.
	CODAmount  *float64
	AdminNotes string
	CreatedBy  string
}

// EditShipmentInput carries a partial update. Before booking, Fields may also
// hold "shipping_mode" and "package_count".
type EditShipmentInput struct {
	ID       string
	Fields   map[string]any
	EditedBy string
}

// ListShipmentsInput carries all parameters for the list endpoint.
type ListShipmentsInput struct {
	Statuses []domain.ShipmentStatus
	Mode     domain.ShippingMode
	Search   string
	DateFrom time.Time
	DateTo   time.Time
	Page     int
	Limit    int
}

// ListShipmentsResult is returned by ListShipments.
type ListShipmentsResult struct {
	Items      []*domain.Shipment
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// BulkFailure is one failed item of a batch.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult collects per-item outcomes. A batch never aborts on one failure.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// EligibilityReport combines the local and courier-side edit checks.
type EligibilityReport struct {
	Editable bool                 `json:"editable"`
	Reason   string               `json:"reason,omitempty"`
	Local    eligibility.Decision `json:"local"`
	Courier  *EditEligibility     `json:"courier,omitempty"`
}

// ShipmentService defines admin use cases on shipments.
type ShipmentService interface {
	CreateShipment(ctx context.Context, input CreateShipmentInput) (*domain.Shipment, error)
	GetShipment(ctx context.Context, id string) (*domain.Shipment, error)
	ListShipments(ctx context.Context, input ListShipmentsInput) (*ListShipmentsResult, error)
	Stats(ctx context.Context) (*ShipmentStats, error)
	EditShipment(ctx context.Context, input EditShipmentInput) (*domain.Shipment, error)
	RecalculateCost(ctx context.Context, id string) (*domain.Shipment, error)
	ApproveShipment(ctx context.Context, id, approvedBy string) (*domain.Shipment, error)
	BulkApprove(ctx context.Context, ids []string, approvedBy string) BulkResult
	CancelShipment(ctx context.Context, id, cancelledBy string) (*domain.Shipment, error)
	CheckEligibility(ctx context.Context, id string) (*EligibilityReport, error)
}
