package delhivery

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// MockAPIClient is an in-memory APIClient for tests and local development.
// Booked waybills are remembered so tracking and edits behave consistently.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetPincode     func(ctx context.Context, pincode string) (*PincodeResponse, error)
	OnGetCharges     func(ctx context.Context, req *ChargesRequest) ([]Charge, error)
	OnGetExpectedTAT func(ctx context.Context, req *TATRequest) (*TATResponse, error)
	OnCreateShipment func(ctx context.Context, req *CreateRequest) (*CreateResponse, error)
	OnTrackShipment  func(ctx context.Context, awb string) (*TrackResponse, error)
	OnCreatePickup   func(ctx context.Context, req *PickupRequest) (*PickupResponse, error)
	OnPackingSlip    func(ctx context.Context, awb, pdfSize string) (*DocumentResponse, error)
	OnInvoice        func(ctx context.Context, awb string) (*DocumentResponse, error)
	OnEditShipment   func(ctx context.Context, req EditRequest) (*EditResponse, error)
	OnDownload       func(ctx context.Context, url string) ([]byte, error)

	mu       sync.Mutex
	seq      int64
	statuses map[string]string
	pickups  map[string]int64
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{
		seq:      time.Now().UnixNano() % 1_000_000,
		statuses: make(map[string]string),
		pickups:  make(map[string]int64),
	}
}

var errSimulated = &APIError{StatusCode: 503, Message: "simulated courier outage"}

func (m *MockAPIClient) pre() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return errSimulated
	}
	return nil
}

// GetPincode reports every pincode as fully serviceable.
func (m *MockAPIClient) GetPincode(ctx context.Context, pincode string) (*PincodeResponse, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnGetPincode != nil {
		return m.OnGetPincode(ctx, pincode)
	}
	return &PincodeResponse{DeliveryCodes: []DeliveryCode{{PostalCode: PostalCode{
		Pin:       json.Number(pincode),
		City:      "Bengaluru",
		StateCode: "KA",
		COD:       "Y",
		PrePaid:   "Y",
		Pickup:    "Y",
		Repl:      "Y",
		Cash:      "Y",
	}}}}, nil
}

// GetCharges returns the fallback tariff with GST on top, tagged as an API quote.
func (m *MockAPIClient) GetCharges(ctx context.Context, req *ChargesRequest) ([]Charge, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnGetCharges != nil {
		return m.OnGetCharges(ctx, req)
	}
	mode := modeFromCode(req.Mode)
	b := FallbackCost(mode, req.WeightGrams, paymentFromCharge(req.PaymentType))
	tax := (b.BaseCharge + b.CODCharge) * 0.18
	total := b.BaseCharge + b.CODCharge + tax
	return []Charge{{
		TotalAmount: &total,
		GrossAmount: b.BaseCharge + b.CODCharge,
		ChargeDL:    b.BaseCharge,
		ChargeCOD:   b.CODCharge,
		TaxData:     TaxData{IGST: tax},
	}}, nil
}

// GetExpectedTAT returns 2 days for Express and 4 for Surface.
func (m *MockAPIClient) GetExpectedTAT(ctx context.Context, req *TATRequest) (*TATResponse, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnGetExpectedTAT != nil {
		return m.OnGetExpectedTAT(ctx, req)
	}
	days := 4
	if req.Mode == "E" {
		days = 2
	}
	resp := &TATResponse{Success: true}
	resp.Data.TAT = &days
	return resp, nil
}

// CreateShipment assigns sequential waybills and records them as Manifested.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	resp := &CreateResponse{Success: true, UploadWBN: fmt.Sprintf("UPL%d", m.seq)}
	for _, s := range req.Shipments {
		m.seq++
		awb := fmt.Sprintf("1490%010d", m.seq)
		m.statuses[awb] = string(CourierManifested)
		resp.Packages = append(resp.Packages, PackageOutcome{Waybill: awb, RefNum: s.Order, Status: "Success"})
	}
	return resp, nil
}

// TrackShipment reports the remembered status of a mock waybill.
func (m *MockAPIClient) TrackShipment(ctx context.Context, awb string) (*TrackResponse, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnTrackShipment != nil {
		return m.OnTrackShipment(ctx, awb)
	}

	m.mu.Lock()
	status, ok := m.statuses[awb]
	m.mu.Unlock()
	if !ok {
		return &TrackResponse{}, nil
	}

	now := time.Now().In(ist).Format("2006-01-02T15:04:05")
	return &TrackResponse{ShipmentData: []ShipmentData{{Shipment: TrackedShipment{
		AWB:    awb,
		Status: StatusDetail{Status: status, StatusType: "UD", StatusDateTime: now, StatusLocation: "Mock_Hub"},
		Scans: []ScanEntry{{ScanDetail: ScanDetail{
			Scan: status, ScanType: "UD", ScanDateTime: now, ScannedLocation: "Mock_Hub",
		}}},
	}}}}, nil
}

// SetStatus moves a mock waybill to a new courier status.
func (m *MockAPIClient) SetStatus(awb string, status CourierStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[awb] = string(status)
}

// CreatePickup returns one pickup id per location/date and flags repeats.
func (m *MockAPIClient) CreatePickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnCreatePickup != nil {
		return m.OnCreatePickup(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := req.PickupLocation + "|" + req.PickupDate
	if id, ok := m.pickups[key]; ok {
		return &PickupResponse{PickupID: json.Number(fmt.Sprint(id)), PickupDate: req.PickupDate, AlreadyExists: true}, nil
	}
	m.seq++
	m.pickups[key] = m.seq
	return &PickupResponse{PickupID: json.Number(fmt.Sprint(m.seq)), PickupDate: req.PickupDate}, nil
}

// mockPDF is a minimal PDF body, base64-encoded.
const mockPDF = "JVBERi0xLjQKJcfsj6IKMSAwIG9iago8PD4+CmVuZG9iagp0cmFpbGVyCjw8Pj4KJSVFT0YK"

// PackingSlip returns an inline PDF.
func (m *MockAPIClient) PackingSlip(ctx context.Context, awb, pdfSize string) (*DocumentResponse, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnPackingSlip != nil {
		return m.OnPackingSlip(ctx, awb, pdfSize)
	}
	return mockDocument(awb), nil
}

// Invoice returns an inline PDF.
func (m *MockAPIClient) Invoice(ctx context.Context, awb string) (*DocumentResponse, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnInvoice != nil {
		return m.OnInvoice(ctx, awb)
	}
	return mockDocument(awb), nil
}

func mockDocument(awb string) *DocumentResponse {
	return &DocumentResponse{
		PackagesFound: 1,
		Packages:      []DocumentPackage{{WBN: awb, PDFEncoding: mockPDF}},
	}
}

// EditShipment accepts edits and cancellations for known waybills.
func (m *MockAPIClient) EditShipment(ctx context.Context, req EditRequest) (*EditResponse, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnEditShipment != nil {
		return m.OnEditShipment(ctx, req)
	}

	awb, _ := req["waybill"].(string)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.statuses[awb]; !ok {
		return &EditResponse{Status: false, Error: "waybill not found", Waybill: awb}, nil
	}
	if req["cancellation"] == "true" {
		m.statuses[awb] = string(CourierCancelled)
		return &EditResponse{Status: true, Remark: "Shipment has been cancelled", Waybill: awb}, nil
	}
	return &EditResponse{Status: true, Remark: "Shipment has been updated", Waybill: awb}, nil
}

// Download returns a minimal PDF for any URL.
func (m *MockAPIClient) Download(ctx context.Context, url string) ([]byte, error) {
	if err := m.pre(); err != nil {
		return nil, err
	}
	if m.OnDownload != nil {
		return m.OnDownload(ctx, url)
	}
	return []byte("%PDF-1.4\n%%EOF\n"), nil
}

func modeFromCode(code string) domain.ShippingMode {
	if code == "E" {
		return domain.ModeExpress
	}
	return domain.ModeSurface
}

func paymentFromCharge(pt string) domain.PaymentMode {
	if pt == "COD" {
		return domain.PaymentCOD
	}
	return domain.PaymentPrepaid
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
