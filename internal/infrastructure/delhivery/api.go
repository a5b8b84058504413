package delhivery

import (
	"context"
	"encoding/json"
	"fmt"
)

// APIClient is the raw Delhivery REST surface. HTTPAPIClient talks to the real
// API; MockAPIClient backs tests and local development.
type APIClient interface {
	// GetPincode fetches serviceability data for one pincode.
	GetPincode(ctx context.Context, pincode string) (*PincodeResponse, error)

	// GetCharges fetches the shipping charge for a weight/mode/payment combination.
	GetCharges(ctx context.Context, req *ChargesRequest) ([]Charge, error)

	// GetExpectedTAT fetches the transit time between two pincodes.
	GetExpectedTAT(ctx context.Context, req *TATRequest) (*TATResponse, error)

	// CreateShipment books a shipment (manifestation).
	CreateShipment(ctx context.Context, req *CreateRequest) (*CreateResponse, error)

	// TrackShipment fetches the scan history for a waybill.
	TrackShipment(ctx context.Context, awb string) (*TrackResponse, error)

	// CreatePickup raises a pickup request for a warehouse and date.
	CreatePickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error)

	// PackingSlip fetches the shipping label for a waybill.
	PackingSlip(ctx context.Context, awb, pdfSize string) (*DocumentResponse, error)

	// Invoice fetches the tax invoice for a waybill.
	Invoice(ctx context.Context, awb string) (*DocumentResponse, error)

	// EditShipment updates or cancels a booked shipment.
	EditShipment(ctx context.Context, req EditRequest) (*EditResponse, error)

	// Download fetches a document from a (signed) URL returned by the API.
	Download(ctx context.Context, url string) ([]byte, error)
}

// ============================================================================
// Serviceability
// ============================================================================

// PincodeResponse is the body of GET /c/api/pin-codes/json/.
type PincodeResponse struct {
	DeliveryCodes []DeliveryCode `json:"delivery_codes"`
}

// DeliveryCode wraps one pincode record.
type DeliveryCode struct {
	PostalCode PostalCode `json:"postal_code"`
}

// PostalCode carries the Y/N service flags for a pincode.
type PostalCode struct {
	Pin       json.Number `json:"pin"`
	City      string      `json:"city"`
	District  string      `json:"district"`
	StateCode string      `json:"state_code"`
	COD       string      `json:"cod"`
	PrePaid   string      `json:"pre_paid"`
	Pickup    string      `json:"pickup"`
	Repl      string      `json:"repl"`
	Cash      string      `json:"cash"`
	Remarks   string      `json:"remarks"`
}

// ============================================================================
// Charges and TAT
// ============================================================================

// ChargesRequest maps onto the kinko invoice/charges query string.
type ChargesRequest struct {
	Mode        string // "S" or "E"
	Status      string // "Delivered", "RTO", "DTO"
	OriginPin   string
	DestPin     string
	WeightGrams float64
	PaymentType string // "COD" or "Pre-paid"
	CODAmount   float64
}

// Charge is one row of the charges response. TotalAmount is nil when the
// courier omitted it.
type Charge struct {
	TotalAmount *float64 `json:"total_amount"`
	GrossAmount float64  `json:"gross_amount"`
	ChargeDL    float64  `json:"charge_DL"`
	ChargeCOD   float64  `json:"charge_COD"`
	ChargeFSC   float64  `json:"charge_FSC"`
	ChargeRTO   float64  `json:"charge_RTO"`
	TaxData     TaxData  `json:"tax_data"`
	Zone        string   `json:"zone"`
}

// TaxData is the GST split of a charge.
type TaxData struct {
	IGST float64 `json:"IGST"`
	CGST float64 `json:"CGST"`
	SGST float64 `json:"SGST"`
}

// Total returns the summed GST.
func (t TaxData) Total() float64 {
	return t.IGST + t.CGST + t.SGST
}

// TATRequest maps onto the expected_tat query string.
type TATRequest struct {
	OriginPin  string
	DestPin    string
	Mode       string // "S" or "E"
	PickupDate string // YYYY-MM-DD
}

// TATResponse is the body of GET /api/dc/expected_tat.
type TATResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    struct {
		TAT *int `json:"tat"`
	} `json:"data"`
}

// ============================================================================
// Manifestation
// ============================================================================

// CreateRequest is JSON-encoded into the "data" form field of /api/cmu/create.json.
type CreateRequest struct {
	Shipments      []ShipmentPayload `json:"shipments"`
	PickupLocation PickupLocation    `json:"pickup_location"`
}

// PickupLocation names the registered warehouse.
type PickupLocation struct {
	Name string `json:"name"`
}

// ShipmentPayload is one package in a manifestation request.
type ShipmentPayload struct {
	Name           string  `json:"name"`
	Address        string  `json:"add"`
	Pin            string  `json:"pin"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Country        string  `json:"country"`
	Phone          string  `json:"phone"`
	Order          string  `json:"order"`
	PaymentMode    string  `json:"payment_mode"`
	ProductsDesc   string  `json:"products_desc"`
	CODAmount      float64 `json:"cod_amount"`
	TotalAmount    float64 `json:"total_amount"`
	Quantity       int     `json:"quantity"`
	Weight         float64 `json:"weight"`
	ShipmentLength float64 `json:"shipment_length"`
	ShipmentWidth  float64 `json:"shipment_width"`
	ShipmentHeight float64 `json:"shipment_height"`
	ShippingMode   string  `json:"shipping_mode"`
	Waybill        string  `json:"waybill"`
}

// CreateResponse is the manifestation result.
type CreateResponse struct {
	Success   bool             `json:"success"`
	Remark    string           `json:"rmk"`
	UploadWBN string           `json:"upload_wbn"`
	Packages  []PackageOutcome `json:"packages"`
}

// PackageOutcome is the per-package result of a manifestation.
type PackageOutcome struct {
	Waybill string   `json:"waybill"`
	RefNum  string   `json:"refnum"`
	Status  string   `json:"status"`
	Remarks []string `json:"remarks"`
}

// ============================================================================
// Tracking
// ============================================================================

// TrackResponse is the body of GET /api/v1/packages/json/.
type TrackResponse struct {
	ShipmentData []ShipmentData `json:"ShipmentData"`
}

// ShipmentData wraps one tracked waybill.
type ShipmentData struct {
	Shipment TrackedShipment `json:"Shipment"`
}

// TrackedShipment is the courier's view of one waybill.
type TrackedShipment struct {
	AWB                  string       `json:"AWB"`
	ReferenceNo          string       `json:"ReferenceNo"`
	Status               StatusDetail `json:"Status"`
	Scans                []ScanEntry  `json:"Scans"`
	ExpectedDeliveryDate string       `json:"ExpectedDeliveryDate"`
	PickUpDate           string       `json:"PickUpDate"`
}

// StatusDetail is the current courier status block.
type StatusDetail struct {
	Status         string `json:"Status"`
	StatusType     string `json:"StatusType"`
	StatusDateTime string `json:"StatusDateTime"`
	StatusLocation string `json:"StatusLocation"`
	Instructions   string `json:"Instructions"`
}

// ScanEntry wraps one scan.
type ScanEntry struct {
	ScanDetail ScanDetail `json:"ScanDetail"`
}

// ScanDetail is one courier scan.
type ScanDetail struct {
	Scan            string `json:"Scan"`
	ScanType        string `json:"ScanType"`
	ScanDateTime    string `json:"ScanDateTime"`
	ScannedLocation string `json:"ScannedLocation"`
	Instructions    string `json:"Instructions"`
}

// ============================================================================
// Pickup
// ============================================================================

// PickupRequest is the body of POST /fm/request/new/.
type PickupRequest struct {
	PickupTime           string `json:"pickup_time"`
	PickupDate           string `json:"pickup_date"`
	PickupLocation       string `json:"pickup_location"`
	ExpectedPackageCount int    `json:"expected_package_count"`
}

// PickupResponse is the pickup result. AlreadyExists is set by the HTTP client
// when the courier reports a duplicate request for the location and date.
type PickupResponse struct {
	PickupID      json.Number `json:"pickup_id"`
	PickupDate    string      `json:"pickup_date"`
	AlreadyExists bool        `json:"-"`
}

// ============================================================================
// Documents
// ============================================================================

// DocumentResponse is the body of the packing slip and invoice endpoints.
type DocumentResponse struct {
	PackagesFound int               `json:"packages_found"`
	Packages      []DocumentPackage `json:"packages"`
}

// DocumentPackage is one waybill's document. PDFEncoding is base64 when the
// courier inlines the PDF.
type DocumentPackage struct {
	WBN             string `json:"wbn"`
	PDFDownloadLink string `json:"pdf_download_link"`
	PDFEncoding     string `json:"pdf_encoding"`
}

// ============================================================================
// Edit / cancel
// ============================================================================

// EditRequest is the body of POST /api/p/edit. Waybill is required; the other
// keys are the courier field names.
type EditRequest map[string]any

// EditResponse is the edit/cancel result.
type EditResponse struct {
	Status  bool   `json:"status"`
	Remark  string `json:"remark"`
	Error   string `json:"error"`
	Waybill string `json:"waybill"`
}

// ============================================================================
// Errors
// ============================================================================

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("delhivery http %d: %s", e.StatusCode, e.Message)
}
