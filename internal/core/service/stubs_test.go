package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

type stubShipmentRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Shipment
	updates   int
	createErr error
	updateErr error
	listErr   error
}

func newStubShipmentRepo(seed ...*domain.Shipment) *stubShipmentRepo {
	r := &stubShipmentRepo{byID: make(map[string]*domain.Shipment)}
	for _, s := range seed {
		r.byID[s.ID] = cloneShipment(s)
	}
	return r
}

func cloneShipment(s *domain.Shipment) *domain.Shipment {
	c := *s
	c.TrackingHistory = append([]domain.TrackingScan(nil), s.TrackingHistory...)
	c.EditHistory = append([]domain.EditRecord(nil), s.EditHistory...)
	return &c
}

func (r *stubShipmentRepo) get(id string) *domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil
	}
	return cloneShipment(s)
}

func (r *stubShipmentRepo) Create(_ context.Context, s *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.byID[s.ID] = cloneShipment(s)
	return nil
}

func (r *stubShipmentRepo) FindByID(_ context.Context, id string) (*domain.Shipment, error) {
	if s := r.get(id); s != nil {
		return s, nil
	}
	return nil, domain.ErrShipmentNotFound
}

func (r *stubShipmentRepo) FindByOrderID(_ context.Context, orderID string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.OrderID == orderID {
			return cloneShipment(s), nil
		}
	}
	return nil, domain.ErrShipmentNotFound
}

func (r *stubShipmentRepo) FindByAWB(_ context.Context, awb string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if awb != "" && s.AWB == awb {
			return cloneShipment(s), nil
		}
	}
	return nil, domain.ErrShipmentNotFound
}

// List applies the same filters the real repositories use.
func (r *stubShipmentRepo) List(_ context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, 0, r.listErr
	}

	var matched []*domain.Shipment
	for _, s := range r.byID {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, s.Status) {
			continue
		}
		if f.Mode != "" && s.ShippingMode != f.Mode {
			continue
		}
		if f.Search != "" && !strings.Contains(s.OrderID, f.Search) && !strings.Contains(s.AWB, f.Search) {
			continue
		}
		matched = append(matched, cloneShipment(s))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return []*domain.Shipment{}, total, nil
	}
	end := min(start+f.Limit, len(matched))
	return matched[start:end], total, nil
}

func (r *stubShipmentRepo) ListSyncable(_ context.Context, excluded []domain.ShipmentStatus) ([]*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.Shipment
	for _, s := range r.byID {
		if s.AWB != "" && !containsStatus(excluded, s.Status) {
			out = append(out, cloneShipment(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubShipmentRepo) Update(_ context.Context, s *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[s.ID]; !ok {
		return domain.ErrShipmentNotFound
	}
	r.updates++
	r.byID[s.ID] = cloneShipment(s)
	return nil
}

// UpdateFields copies only the named fields onto the stored row.
func (r *stubShipmentRepo) UpdateFields(_ context.Context, s *domain.Shipment, fields ...ports.ShipmentField) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.byID[s.ID]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	r.updates++
	src := cloneShipment(s)
	for _, f := range fields {
		copyShipmentField(stored, src, f)
	}
	stored.UpdatedAt = s.UpdatedAt
	return nil
}

func copyShipmentField(dst, src *domain.Shipment, f ports.ShipmentField) {
	switch f {
	case ports.FieldStatus:
		dst.Status = src.Status
	case ports.FieldCourierStatus:
		dst.CourierStatus = src.CourierStatus
	case ports.FieldTrackingHistory:
		dst.TrackingHistory = src.TrackingHistory
	case ports.FieldEstimatedDelivery:
		dst.EstimatedDelivery = src.EstimatedDelivery
	case ports.FieldPickupActualDate:
		dst.PickupActualDate = src.PickupActualDate
	case ports.FieldLastSyncAt:
		dst.LastSyncAt = src.LastSyncAt
	case ports.FieldLabelURL:
		dst.LabelURL = src.LabelURL
	case ports.FieldInvoiceURL:
		dst.InvoiceURL = src.InvoiceURL
	case ports.FieldDelhiveryPickupID:
		dst.DelhiveryPickupID = src.DelhiveryPickupID
	case ports.FieldConsignee:
		dst.Consignee = src.Consignee
	case ports.FieldWeightGrams:
		dst.WeightGrams = src.WeightGrams
	case ports.FieldDimensions:
		dst.Dimensions = src.Dimensions
	case ports.FieldPackageCount:
		dst.PackageCount = src.PackageCount
	case ports.FieldShippingMode:
		dst.ShippingMode = src.ShippingMode
	case ports.FieldPaymentMode:
		dst.PaymentMode = src.PaymentMode
	case ports.FieldCODAmount:
		dst.CODAmount = src.CODAmount
	case ports.FieldEstimatedCost:
		dst.EstimatedCost = src.EstimatedCost
	case ports.FieldCostBreakdown:
		dst.CostBreakdown = src.CostBreakdown
	case ports.FieldAdminNotes:
		dst.AdminNotes = src.AdminNotes
	case ports.FieldEditHistory:
		dst.EditHistory = src.EditHistory
	case ports.FieldEditedBy:
		dst.EditedBy = src.EditedBy
	case ports.FieldEditable:
		dst.Editable = src.Editable
	default:
		panic("stubShipmentRepo: unhandled field " + string(f))
	}
}

func (r *stubShipmentRepo) MarkBookingFailed(_ context.Context, id, reason string, at time.Time) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	s.Status = domain.StatusPendingReview
	s.ApprovedAt = nil
	s.ApprovedBy = ""
	s.FailedReason = reason
	s.RetryCount++
	s.UpdatedAt = at
	return cloneShipment(s), nil
}

func (r *stubShipmentRepo) Stats(_ context.Context) (*ports.ShipmentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := &ports.ShipmentStats{ByStatus: map[domain.ShipmentStatus]int64{}}
	for _, s := range r.byID {
		st.Total++
		st.ByStatus[s.Status]++
		st.TotalEstimatedCost += s.EstimatedCost
		if s.ActualCost != nil {
			st.TotalActualCost += *s.ActualCost
		}
	}
	return st, nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

type orderUpdate struct {
	ID          string
	Status      domain.OrderStatus
	DeliveredAt *time.Time
}

type stubOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	updates   []orderUpdate
	updateErr error
}

func newStubOrderRepo(orders ...*domain.Order) *stubOrderRepo {
	r := &stubOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		c := *o
		r.orders[o.ID] = &c
	}
	return r
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	c := *o
	return &c, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, deliveredAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	if deliveredAt != nil {
		o.DeliveredAt = deliveredAt
	}
	r.updates = append(r.updates, orderUpdate{ID: id, Status: status, DeliveredAt: deliveredAt})
	return nil
}

// ---------------------------------------------------------------------------
// Courier
// ---------------------------------------------------------------------------

type stubCourier struct {
	mu sync.Mutex

	costs       map[domain.ShippingMode]float64
	costSource  string
	bookErr     error
	bookResult  *ports.BookingResult
	booked      []ports.BookingRequest
	tracking    map[string]*domain.TrackingUpdate
	trackCalls  []string
	pickupErr   error
	pickupCalls []ports.PickupSchedule
	cancelErr   error
	cancelled   []string
	editErr     error
	edits       []map[string]any
	eligibility ports.EditEligibility
	label       *ports.Document
	download    []byte
	// during runs inside document and edit calls, standing in for a
	// concurrent writer.
	during      func()
}

func newStubCourier() *stubCourier {
	return &stubCourier{
		costs:       map[domain.ShippingMode]float64{domain.ModeSurface: 90, domain.ModeExpress: 160},
		costSource:  domain.CostSourceAPI,
		tracking:    make(map[string]*domain.TrackingUpdate),
		eligibility: ports.EditEligibility{Eligible: true, Known: true, CurrentStatus: "Manifested"},
	}
}

func (c *stubCourier) Name() string { return "Delhivery" }

func (c *stubCourier) CheckServiceability(_ context.Context, pincode string) ports.Serviceability {
	return ports.Serviceability{Pincode: pincode, Serviceable: true, Status: ports.ServiceabilityOK, City: "Mumbai", State: "MH"}
}

func (c *stubCourier) EstimateCost(_ context.Context, q ports.CostQuery) ports.CostEstimate {
	c.mu.Lock()
	defer c.mu.Unlock()
	amount := c.costs[q.Mode]
	return ports.CostEstimate{
		Mode:      q.Mode,
		Amount:    amount,
		Currency:  "INR",
		Source:    c.costSource,
		Breakdown: domain.CostBreakdown{BaseCharge: amount, Total: amount, Currency: "INR", Source: c.costSource},
	}
}

func (c *stubCourier) EstimateTAT(_ context.Context, q ports.TATQuery) ports.TATEstimate {
	days := 4
	if q.Mode == domain.ModeExpress {
		days = 2
	}
	return ports.TATEstimate{EstimatedDays: days, ExpectedDeliveryDate: q.PickupDate.AddDate(0, 0, days), Source: "api"}
}

func (c *stubCourier) CreateShipment(_ context.Context, req ports.BookingRequest) (*ports.BookingResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.booked = append(c.booked, req)
	if c.bookErr != nil {
		return nil, c.bookErr
	}
	if c.bookResult != nil {
		r := *c.bookResult
		return &r, nil
	}
	cost := 101.5
	return &ports.BookingResult{
		AWB:            "AWB" + req.OrderID,
		CourierOrderID: req.OrderID,
		TrackingURL:    "https://track.example/AWB" + req.OrderID,
		Cost:           &cost,
	}, nil
}

func (c *stubCourier) GetTrackingInfo(_ context.Context, awb string) *domain.TrackingUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trackCalls = append(c.trackCalls, awb)
	u, ok := c.tracking[awb]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (c *stubCourier) SchedulePickup(_ context.Context, req ports.PickupSchedule) (*ports.PickupResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pickupCalls = append(c.pickupCalls, req)
	if c.pickupErr != nil {
		return nil, c.pickupErr
	}
	return &ports.PickupResult{PickupID: "PU-" + req.Date}, nil
}

func (c *stubCourier) GenerateLabel(_ context.Context, awb, _ string) (*ports.Document, error) {
	c.runDuring()
	if c.label != nil {
		return c.label, nil
	}
	return &ports.Document{Content: []byte("%PDF-label-" + awb)}, nil
}

func (c *stubCourier) GenerateInvoice(_ context.Context, awb string) (*ports.Document, error) {
	c.runDuring()
	return &ports.Document{URL: "https://s3.example/invoice-" + awb + ".pdf"}, nil
}

func (c *stubCourier) FetchDocument(_ context.Context, url string) ([]byte, error) {
	if c.download != nil {
		return c.download, nil
	}
	return []byte("%PDF-" + url), nil
}

func (c *stubCourier) CancelShipment(_ context.Context, awb string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelErr != nil {
		return c.cancelErr
	}
	c.cancelled = append(c.cancelled, awb)
	return nil
}

func (c *stubCourier) EditShipment(_ context.Context, _ string, fields map[string]any) error {
	c.runDuring()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editErr != nil {
		return c.editErr
	}
	c.edits = append(c.edits, fields)
	return nil
}

func (c *stubCourier) ValidateEditEligibility(_ context.Context, _ string) ports.EditEligibility {
	return c.eligibility
}

func (c *stubCourier) runDuring() {
	if c.during != nil {
		c.during()
	}
}

var errCourierDown = errors.New("courier unavailable")

// ---------------------------------------------------------------------------
// Pickups
// ---------------------------------------------------------------------------

type stubPickupRepo struct {
	mu      sync.Mutex
	seq     int
	pickups map[string]*domain.DailyPickup
}

func newStubPickupRepo() *stubPickupRepo {
	return &stubPickupRepo{pickups: make(map[string]*domain.DailyPickup)}
}

// Reserve mirrors the atomic upsert: one active row per (location, date).
func (r *stubPickupRepo) Reserve(_ context.Context, location, date, pickupTime string, count int, now time.Time) (*domain.DailyPickup, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pickups {
		if p.PickupLocation == location && p.PickupDate == date && p.Status == domain.PickupActive {
			p.ExpectedPackageCount += count
			p.UpdatedAt = now
			c := *p
			return &c, false, nil
		}
	}
	r.seq++
	p := &domain.DailyPickup{
		ID:                   "pickup-" + strconv.Itoa(r.seq),
		PickupLocation:       location,
		PickupDate:           date,
		PickupTime:           pickupTime,
		ExpectedPackageCount: count,
		Status:               domain.PickupActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	r.pickups[p.ID] = p
	c := *p
	return &c, true, nil
}

func (r *stubPickupRepo) SetCourierPickupID(_ context.Context, id, courierPickupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pickups[id]
	if !ok {
		return domain.ErrPickupNotFound
	}
	p.CourierPickupID = courierPickupID
	return nil
}

func (r *stubPickupRepo) MarkFailed(_ context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pickups[id]
	if !ok {
		return domain.ErrPickupNotFound
	}
	p.Status = domain.PickupFailed
	p.FailedReason = reason
	return nil
}

func (r *stubPickupRepo) FindActive(_ context.Context, location, date string) (*domain.DailyPickup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pickups {
		if p.PickupLocation == location && p.PickupDate == date && p.Status == domain.PickupActive {
			c := *p
			return &c, nil
		}
	}
	return nil, domain.ErrPickupNotFound
}

func (r *stubPickupRepo) List(_ context.Context, from, to string) ([]*domain.DailyPickup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DailyPickup
	for _, p := range r.pickups {
		if p.PickupDate >= from && p.PickupDate <= to {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Locks and dedup
// ---------------------------------------------------------------------------

type stubLock struct {
	held       bool
	acquireErr error
	released   int
}

func (l *stubLock) Acquire(_ context.Context, _ time.Duration) (bool, error) {
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *stubLock) Release(_ context.Context) error {
	l.held = false
	l.released++
	return nil
}

type stubDedup struct {
	keys   map[string]bool
	getErr error
}

func newStubDedup() *stubDedup {
	return &stubDedup{keys: make(map[string]bool)}
}

func (d *stubDedup) Exists(_ context.Context, key string) (bool, error) {
	if d.getErr != nil {
		return false, d.getErr
	}
	return d.keys[key], nil
}

func (d *stubDedup) Set(_ context.Context, key string, _ time.Duration) error {
	d.keys[key] = true
	return nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	if _, exists := r.users[user.Username]; exists {
		return domain.ErrUserExists
	}
	c := *user
	r.users[user.Username] = &c
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// fixedNow is 10:30 IST on 2024-03-10.
var fixedNow = time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func noSleep(context.Context, time.Duration) error { return nil }

func testOrder(id string) *domain.Order {
	return &domain.Order{
		ID:            id,
		Status:        domain.OrderPending,
		PaymentMethod: domain.PaymentPrepaid,
		TotalAmount:   1499,
		Customer: domain.Customer{
			Name:    "Asha Rao",
			Phone:   "9876543210",
			Address: "12 MG Road",
			Pincode: "400001",
			City:    "Mumbai",
			State:   "MH",
		},
		ItemsDescription: "Gift hamper",
	}
}

func pendingShipment(id, orderID string) *domain.Shipment {
	return &domain.Shipment{
		ID:                 id,
		OrderID:            orderID,
		WeightGrams:        1000,
		Dimensions:         domain.Dimensions{Length: 20, Width: 15, Height: 10},
		PackageCount:       1,
		ShippingMode:       domain.ModeSurface,
		PaymentMode:        domain.PaymentPrepaid,
		DestinationPincode: "400001",
		Status:             domain.StatusPendingReview,
		Editable:           true,
		EstimatedCost:      90,
		CreatedAt:          fixedNow,
	}
}

func bookedShipment(id, orderID, awb string, status domain.ShipmentStatus) *domain.Shipment {
	s := pendingShipment(id, orderID)
	s.AWB = awb
	s.Status = status
	s.Editable = false
	cost := 95.0
	s.ActualCost = &cost
	return s
}
