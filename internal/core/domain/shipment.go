package domain

import (
	"time"
)

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPendingReview  ShipmentStatus = "pending_review"
	StatusApproved       ShipmentStatus = "approved"
	StatusPlaced         ShipmentStatus = "placed"
	StatusPendingPickup  ShipmentStatus = "pending_pickup"
	StatusPickedUp       ShipmentStatus = "picked_up"
	StatusInTransit      ShipmentStatus = "in_transit"
	StatusOutForDelivery ShipmentStatus = "out_for_delivery"
	StatusDelivered      ShipmentStatus = "delivered"
	StatusFailed         ShipmentStatus = "failed"
	StatusRTOInitiated   ShipmentStatus = "rto_initiated"
	StatusRTODelivered   ShipmentStatus = "rto_delivered"
	StatusCancelled      ShipmentStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ShipmentStatus{
	StatusPendingReview, StatusApproved, StatusPlaced, StatusPendingPickup,
	StatusPickedUp, StatusInTransit, StatusOutForDelivery, StatusDelivered,
	StatusFailed, StatusRTOInitiated, StatusRTODelivered, StatusCancelled,
}

// validTransitions covers admin-driven moves. Courier-driven moves go through
// the sync path, which only guards terminal statuses.
var validTransitions = map[ShipmentStatus][]ShipmentStatus{
	StatusPendingReview: {StatusApproved, StatusCancelled},
	StatusApproved:      {StatusPlaced, StatusPendingReview, StatusCancelled},
}

// CanTransitionTo reports whether an admin action may move a shipment from s to next.
// Cancellation is allowed from every non-terminal status.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s ShipmentStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRTODelivered, StatusFailed:
		return true
	}
	return false
}

// IsBooked reports whether the status lies past the courier booking boundary.
func (s ShipmentStatus) IsBooked() bool {
	return s != StatusPendingReview && s != StatusApproved && s != ""
}

// IsValid reports whether s is a known status.
func (s ShipmentStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// SyncExcludedStatuses are skipped by bulk reconciliation.
var SyncExcludedStatuses = []ShipmentStatus{StatusDelivered, StatusCancelled, StatusRTODelivered}

// ShippingMode is the courier service level.
type ShippingMode string

const (
	ModeSurface ShippingMode = "Surface"
	ModeExpress ShippingMode = "Express"
)

// Alternate returns the other shipping mode.
func (m ShippingMode) Alternate() ShippingMode {
	if m == ModeExpress {
		return ModeSurface
	}
	return ModeExpress
}

// IsValid reports whether m is Surface or Express.
func (m ShippingMode) IsValid() bool {
	return m == ModeSurface || m == ModeExpress
}

// Dimensions represents the physical size of a package in centimetres.
type Dimensions struct {
	Length float64 `json:"length" bson:"length"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Consignee is the delivery contact copied from the order at creation.
type Consignee struct {
	Name         string `json:"name" bson:"name"`
	Phone        string `json:"phone" bson:"phone"`
	Address      string `json:"address" bson:"address"`
	ProductsDesc string `json:"products_desc" bson:"products_desc"`
}

// ModeQuote is one side of the surface/express cost comparison.
type ModeQuote struct {
	Mode   ShippingMode `json:"mode" bson:"mode"`
	Amount float64      `json:"amount" bson:"amount"`
	Source string       `json:"source" bson:"source"`
}

// Cost sources. Estimated figures come from the static fallback tariff.
const (
	CostSourceAPI       = "api"
	CostSourceEstimated = "estimated"
)

// CostBreakdown splits the cost of a shipment.
type CostBreakdown struct {
	BaseCharge     float64     `json:"base_charge" bson:"base_charge"`
	CODCharge      float64     `json:"cod_charge" bson:"cod_charge"`
	OtherCharges   float64     `json:"other_charges" bson:"other_charges"`
	Taxes          float64     `json:"taxes" bson:"taxes"`
	Total          float64     `json:"total" bson:"total"`
	Currency       string      `json:"currency" bson:"currency"`
	Source         string      `json:"source" bson:"source"`
	ModeComparison []ModeQuote `json:"mode_comparison,omitempty" bson:"mode_comparison,omitempty"`
}

// TrackingScan is one courier scan event. History is kept in the order received.
type TrackingScan struct {
	Status    string    `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Location  string    `json:"location" bson:"location"`
	Remarks   string    `json:"remarks,omitempty" bson:"remarks,omitempty"`
}

// EditRecord is one entry of the append-only edit history.
type EditRecord struct {
	FieldsChanged []string  `json:"fields_changed" bson:"fields_changed"`
	EditedAt      time.Time `json:"edited_at" bson:"edited_at"`
	EditedBy      string    `json:"edited_by" bson:"edited_by"`
}

// Shipment is the cached view of courier state for one order.
type Shipment struct {
	ID      string `json:"id" bson:"_id"`
	OrderID string `json:"order_id" bson:"order_id"`

	WeightGrams  float64      `json:"weight_grams" bson:"weight_grams"`
	Dimensions   Dimensions   `json:"dimensions_cm" bson:"dimensions_cm"`
	PackageCount int          `json:"package_count" bson:"package_count"`
	ShippingMode ShippingMode `json:"shipping_mode" bson:"shipping_mode"`
	PaymentMode  PaymentMode  `json:"payment_mode" bson:"payment_mode"`
	CODAmount    float64      `json:"cod_amount" bson:"cod_amount"`
	Consignee    Consignee    `json:"consignee" bson:"consignee"`

	OriginPincode      string `json:"origin_pincode" bson:"origin_pincode"`
	DestinationPincode string `json:"destination_pincode" bson:"destination_pincode"`
	DestinationCity    string `json:"destination_city" bson:"destination_city"`
	DestinationState   string `json:"destination_state" bson:"destination_state"`

	AWB               string `json:"awb,omitempty" bson:"awb,omitempty"`
	Courier           string `json:"courier,omitempty" bson:"courier,omitempty"`
	TrackingURL       string `json:"tracking_url,omitempty" bson:"tracking_url,omitempty"`
	DelhiveryOrderID  string `json:"delhivery_order_id,omitempty" bson:"delhivery_order_id,omitempty"`
	DelhiveryPickupID string `json:"delhivery_pickup_id,omitempty" bson:"delhivery_pickup_id,omitempty"`
	CourierStatus     string `json:"courier_status,omitempty" bson:"courier_status,omitempty"`

	LabelURL    string `json:"label_url,omitempty" bson:"label_url,omitempty"`
	InvoiceURL  string `json:"invoice_url,omitempty" bson:"invoice_url,omitempty"`
	ManifestURL string `json:"manifest_url,omitempty" bson:"manifest_url,omitempty"`

	EstimatedCost float64       `json:"estimated_cost" bson:"estimated_cost"`
	ActualCost    *float64      `json:"actual_cost" bson:"actual_cost"`
	CostBreakdown CostBreakdown `json:"cost_breakdown" bson:"cost_breakdown"`

	EstimatedDelivery   *time.Time `json:"estimated_delivery" bson:"estimated_delivery"`
	PickupScheduledDate *time.Time `json:"pickup_scheduled_date" bson:"pickup_scheduled_date"`
	PickupActualDate    *time.Time `json:"pickup_actual_date" bson:"pickup_actual_date"`
	PlacedAt            *time.Time `json:"placed_at" bson:"placed_at"`
	ApprovedAt          *time.Time `json:"approved_at" bson:"approved_at"`
	LastSyncAt          *time.Time `json:"last_sync_at" bson:"last_sync_at"`

	Status ShipmentStatus `json:"status" bson:"status"`

	Editable    bool         `json:"editable" bson:"editable"`
	EditHistory []EditRecord `json:"edit_history" bson:"edit_history"`

	FailedReason string `json:"failed_reason,omitempty" bson:"failed_reason,omitempty"`
	RetryCount   int    `json:"retry_count" bson:"retry_count"`

	AdminNotes string `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	EditedBy   string `json:"edited_by,omitempty" bson:"edited_by,omitempty"`
	ApprovedBy string `json:"approved_by,omitempty" bson:"approved_by,omitempty"`

	TrackingHistory []TrackingScan `json:"tracking_history" bson:"tracking_history"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Lock marks the shipment as no longer editable. There is no unlock.
func (s *Shipment) Lock() {
	s.Editable = false
}

// RecordEdit appends an edit history entry.
func (s *Shipment) RecordEdit(fields []string, by string, at time.Time) {
	s.EditHistory = append(s.EditHistory, EditRecord{
		FieldsChanged: fields,
		EditedAt:      at,
		EditedBy:      by,
	})
	s.EditedBy = by
}
