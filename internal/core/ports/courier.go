package ports

import (
	"context"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// ServiceabilityStatus explains a serviceability result.
type ServiceabilityStatus string

const (
	ServiceabilityOK             ServiceabilityStatus = "ok"
	ServiceabilityNotServiceable ServiceabilityStatus = "not_serviceable"
	ServiceabilityInvalidPincode ServiceabilityStatus = "invalid_pincode"
	ServiceabilityNoCredentials  ServiceabilityStatus = "no_credentials"
	ServiceabilityAuthError      ServiceabilityStatus = "auth_error"
	ServiceabilityNotFound       ServiceabilityStatus = "not_found"
	ServiceabilityNetworkError   ServiceabilityStatus = "network_error"
)

// ServiceFeatures are the per-pincode courier capabilities.
type ServiceFeatures struct {
	COD     bool `json:"cod"`
	Prepaid bool `json:"prepaid"`
	Pickup  bool `json:"pickup"`
	Reverse bool `json:"reverse"`
	Cash    bool `json:"cash"`
}

// Serviceability is the result of a pincode check. It never carries an error:
// every failure is folded into Status with Serviceable=false.
type Serviceability struct {
	Pincode     string               `json:"pincode"`
	Serviceable bool                 `json:"serviceable"`
	Status      ServiceabilityStatus `json:"status"`
	City        string               `json:"city,omitempty"`
	State       string               `json:"state,omitempty"`
	Features    ServiceFeatures      `json:"features"`
	Message     string               `json:"message,omitempty"`
}

// CostQuery asks for the price of one parcel.
type CostQuery struct {
	OriginPincode      string
	DestinationPincode string
	Mode               domain.ShippingMode
	WeightGrams        float64
	PaymentMode        domain.PaymentMode
	CODAmount          float64
}

// CostEstimate is a priced parcel. Source is domain.CostSourceAPI or
// domain.CostSourceEstimated.
type CostEstimate struct {
	Mode      domain.ShippingMode  `json:"mode"`
	Amount    float64              `json:"amount"`
	Currency  string               `json:"currency"`
	Source    string               `json:"source"`
	Breakdown domain.CostBreakdown `json:"breakdown"`
}

// TATQuery asks for a transit time. The states and city feed the fallback table.
type TATQuery struct {
	OriginPincode      string
	OriginState        string
	DestinationPincode string
	DestinationState   string
	DestinationCity    string
	Mode               domain.ShippingMode
	PickupDate         time.Time
}

// TATEstimate is a transit-time estimate.
type TATEstimate struct {
	EstimatedDays        int       `json:"estimated_days"`
	ExpectedDeliveryDate time.Time `json:"expected_delivery_date"`
	Source               string    `json:"source"`
}

// BookingRequest is everything the courier needs to manifest a shipment.
type BookingRequest struct {
	OrderID            string
	Consignee          domain.Consignee
	DestinationPincode string
	DestinationCity    string
	DestinationState   string
	PaymentMode        domain.PaymentMode
	CODAmount          float64
	TotalAmount        float64
	Quantity           int
	WeightGrams        float64
	Dimensions         domain.Dimensions
	ShippingMode       domain.ShippingMode
	OriginPincode      string
}

// BookingResult is a confirmed courier booking. Cost is nil when the courier
// did not quote a final charge.
type BookingResult struct {
	AWB            string
	CourierOrderID string
	TrackingURL    string
	LabelURL       string
	InvoiceURL     string
	ManifestURL    string
	Cost           *float64
	Breakdown      *domain.CostBreakdown
}

// PickupSchedule asks the courier to collect packages at a location on a date.
type PickupSchedule struct {
	Location     string
	Date         string // domain.PickupDateLayout
	Time         string // HH:MM:SS
	PackageCount int
}

// PickupResult is the courier's answer. AlreadyExists counts as success.
type PickupResult struct {
	PickupID      string
	AlreadyExists bool
}

// Document is a label or invoice. Content is set when the courier returned
// the PDF inline; otherwise URL points at a (possibly expiring) copy.
type Document struct {
	Content []byte
	URL     string
}

// EditEligibility is the courier-side edit check.
type EditEligibility struct {
	Eligible      bool   `json:"eligible"`
	Reason        string `json:"reason,omitempty"`
	CurrentStatus string `json:"current_status,omitempty"`
	Known         bool   `json:"known"`
}

// CourierGateway is the single boundary to the courier API. Estimation calls
// never fail; booking, cancel and edit return classified errors.
type CourierGateway interface {
	// Name is the courier name stored on booked shipments.
	Name() string
	CheckServiceability(ctx context.Context, pincode string) Serviceability
	EstimateCost(ctx context.Context, q CostQuery) CostEstimate
	EstimateTAT(ctx context.Context, q TATQuery) TATEstimate
	CreateShipment(ctx context.Context, req BookingRequest) (*BookingResult, error)
	// GetTrackingInfo returns nil when the courier has no usable record.
	GetTrackingInfo(ctx context.Context, awb string) *domain.TrackingUpdate
	SchedulePickup(ctx context.Context, req PickupSchedule) (*PickupResult, error)
	GenerateLabel(ctx context.Context, awb, pdfSize string) (*Document, error)
	GenerateInvoice(ctx context.Context, awb string) (*Document, error)
	FetchDocument(ctx context.Context, url string) ([]byte, error)
	CancelShipment(ctx context.Context, awb string) error
	EditShipment(ctx context.Context, awb string, fields map[string]any) error
	ValidateEditEligibility(ctx context.Context, awb string) EditEligibility
}
