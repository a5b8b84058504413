// Package delhivery integrates the Delhivery courier API. Client implements
// ports.CourierGateway on top of an APIClient (HTTP or mock), normalising
// responses and falling back to static estimates when pricing or transit
// lookups fail.
package delhivery

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/giftkart/shipping-admin/internal/api/metrics"
	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const (
	courierName       = "Delhivery"
	trackingURLFormat = "https://www.delhivery.com/track/package/%s"
	defaultPDFSize    = "A4"
)

var pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

var ist = time.FixedZone("IST", 5*3600+30*60)

// Config holds Delhivery configuration.
type Config struct {
	Token          string
	BaseURL        string
	Timeout        time.Duration
	OriginPincode  string
	OriginState    string
	PickupLocation string
	UseMock        bool // When true, uses the in-memory mock API client
}

// Client is the Delhivery gateway.
type Client struct {
	config    Config
	apiClient APIClient
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New creates a Client backed by the HTTP API, or by the mock when
// cfg.UseMock is set.
func New(cfg Config, logger zerolog.Logger) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			Timeout: cfg.Timeout,
		})
	}
	return NewWithAPIClient(cfg, apiClient, logger)
}

// NewWithAPIClient creates a Client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger zerolog.Logger) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger.With().Str("component", "delhivery").Logger(),
		tracer:    otel.Tracer("github.com/giftkart/shipping-admin/delhivery"),
		now:       time.Now,
	}
}

// Name returns the courier name stored on shipments.
func (c *Client) Name() string {
	return courierName
}

func (c *Client) hasCredentials() bool {
	return c.config.Token != "" || c.config.UseMock
}

// start opens a span and returns a finish func that records the outcome in
// the span and in the courier metrics.
func (c *Client) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := c.tracer.Start(ctx, "delhivery."+op, trace.WithAttributes(attrs...))
	begin := time.Now()
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			var ge *GatewayError
			if errors.As(err, &ge) {
				outcome = string(ge.Kind)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.CourierRequestsTotal.WithLabelValues(op, outcome).Inc()
		metrics.CourierRequestDuration.WithLabelValues(op).Observe(time.Since(begin).Seconds())
		span.End()
	}
}

// ============================================================================
// Serviceability
// ============================================================================

// CheckServiceability never returns an error: bad input, missing credentials
// and courier failures all become Serviceable=false with a Status.
func (c *Client) CheckServiceability(ctx context.Context, pincode string) ports.Serviceability {
	res := ports.Serviceability{Pincode: pincode}

	if !pincodePattern.MatchString(pincode) {
		res.Status = ports.ServiceabilityInvalidPincode
		res.Message = "pincode must be exactly 6 digits"
		return res
	}
	if !c.hasCredentials() {
		res.Status = ports.ServiceabilityNoCredentials
		res.Message = "courier credentials not configured"
		return res
	}

	ctx, finish := c.start(ctx, "serviceability", attribute.String("pincode", pincode))
	resp, err := c.apiClient.GetPincode(ctx, pincode)
	if err != nil {
		ge := classify("serviceability", err)
		finish(ge)
		switch ge.Kind {
		case KindAuth:
			res.Status = ports.ServiceabilityAuthError
		case KindNotFound:
			res.Status = ports.ServiceabilityNotFound
		default:
			res.Status = ports.ServiceabilityNetworkError
		}
		res.Message = ge.Message
		c.logger.Warn().Err(err).Str("pincode", pincode).Str("status", string(res.Status)).Msg("serviceability check failed")
		return res
	}
	finish(nil)

	if len(resp.DeliveryCodes) == 0 {
		res.Status = ports.ServiceabilityNotServiceable
		res.Message = "pincode is not serviced"
		return res
	}

	pc := resp.DeliveryCodes[0].PostalCode
	res.City = pc.City
	res.State = pc.StateCode
	res.Features = ports.ServiceFeatures{
		COD:     yes(pc.COD),
		Prepaid: yes(pc.PrePaid),
		Pickup:  yes(pc.Pickup),
		Reverse: yes(pc.Repl),
		Cash:    yes(pc.Cash),
	}
	embargo := strings.EqualFold(strings.TrimSpace(pc.Remarks), "embargo")
	res.Serviceable = !embargo && (res.Features.COD || res.Features.Prepaid)
	if res.Serviceable {
		res.Status = ports.ServiceabilityOK
	} else {
		res.Status = ports.ServiceabilityNotServiceable
		res.Message = pc.Remarks
	}
	return res
}

func yes(flag string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), "y")
}

// ============================================================================
// Estimation
// ============================================================================

// EstimateCost prices a parcel, falling back to the static tariff on any
// failure. The result's Source says which path produced it.
func (c *Client) EstimateCost(ctx context.Context, q ports.CostQuery) ports.CostEstimate {
	mode := q.Mode
	if !mode.IsValid() {
		mode = domain.ModeSurface
	}

	fallback := func(reason string, err error) ports.CostEstimate {
		b := FallbackCost(mode, q.WeightGrams, q.PaymentMode)
		metrics.CourierFallbacksTotal.WithLabelValues("cost").Inc()
		c.logger.Warn().Err(err).Str("reason", reason).Str("mode", string(mode)).
			Str("pincode", q.DestinationPincode).Msg("using fallback cost")
		return ports.CostEstimate{
			Mode:      mode,
			Amount:    b.Total,
			Currency:  b.Currency,
			Source:    b.Source,
			Breakdown: b,
		}
	}

	if !pincodePattern.MatchString(q.DestinationPincode) {
		return fallback("invalid destination pincode", nil)
	}
	if !c.hasCredentials() {
		return fallback("no credentials", nil)
	}

	weight := q.WeightGrams
	if weight < 1 {
		weight = 1
	}
	req := &ChargesRequest{
		Mode:        modeCode(mode),
		Status:      "Delivered",
		OriginPin:   c.originPincode(q.OriginPincode),
		DestPin:     q.DestinationPincode,
		WeightGrams: weight,
		PaymentType: chargePaymentType(q.PaymentMode),
	}
	if q.PaymentMode == domain.PaymentCOD {
		req.CODAmount = q.CODAmount
	}

	ctx, finish := c.start(ctx, "estimate_cost", attribute.String("mode", string(mode)))
	charges, err := c.apiClient.GetCharges(ctx, req)
	if err != nil {
		finish(classify("estimate_cost", err))
		return fallback("api error", err)
	}
	finish(nil)

	if len(charges) == 0 || charges[0].TotalAmount == nil {
		return fallback("missing total_amount", nil)
	}

	ch := charges[0]
	total := *ch.TotalAmount
	taxes := ch.TaxData.Total()
	other := total - ch.ChargeDL - ch.ChargeCOD - taxes
	if other < 0 {
		other = 0
	}
	b := domain.CostBreakdown{
		BaseCharge:   ch.ChargeDL,
		CODCharge:    ch.ChargeCOD,
		OtherCharges: other,
		Taxes:        taxes,
		Total:        total,
		Currency:     currencyINR,
		Source:       domain.CostSourceAPI,
	}
	return ports.CostEstimate{Mode: mode, Amount: total, Currency: currencyINR, Source: domain.CostSourceAPI, Breakdown: b}
}

// EstimateTAT estimates transit days, falling back to the zone table.
func (c *Client) EstimateTAT(ctx context.Context, q ports.TATQuery) ports.TATEstimate {
	mode := q.Mode
	if !mode.IsValid() {
		mode = domain.ModeSurface
	}
	pickup := q.PickupDate
	if pickup.IsZero() {
		pickup = startOfDay(c.now().In(ist)).AddDate(0, 0, 1)
	}

	fallback := func(reason string, err error) ports.TATEstimate {
		origin := q.OriginState
		if origin == "" {
			origin = c.config.OriginState
		}
		days := FallbackTransitDays(mode, origin, q.DestinationState, q.DestinationCity)
		metrics.CourierFallbacksTotal.WithLabelValues("tat").Inc()
		c.logger.Warn().Err(err).Str("reason", reason).Int("days", days).
			Str("pincode", q.DestinationPincode).Msg("using fallback transit time")
		return ports.TATEstimate{
			EstimatedDays:        days,
			ExpectedDeliveryDate: pickup.AddDate(0, 0, days),
			Source:               domain.CostSourceEstimated,
		}
	}

	if !pincodePattern.MatchString(q.DestinationPincode) {
		return fallback("invalid destination pincode", nil)
	}
	if !c.hasCredentials() {
		return fallback("no credentials", nil)
	}

	ctx, finish := c.start(ctx, "estimate_tat", attribute.String("mode", string(mode)))
	resp, err := c.apiClient.GetExpectedTAT(ctx, &TATRequest{
		OriginPin:  c.originPincode(q.OriginPincode),
		DestPin:    q.DestinationPincode,
		Mode:       modeCode(mode),
		PickupDate: pickup.Format(domain.PickupDateLayout),
	})
	if err != nil {
		finish(classify("estimate_tat", err))
		return fallback("api error", err)
	}
	finish(nil)

	if !resp.Success || resp.Data.TAT == nil || *resp.Data.TAT <= 0 {
		return fallback("no tat in response", nil)
	}
	days := *resp.Data.TAT
	return ports.TATEstimate{
		EstimatedDays:        days,
		ExpectedDeliveryDate: pickup.AddDate(0, 0, days),
		Source:               domain.CostSourceAPI,
	}
}

// ============================================================================
// Booking
// ============================================================================

// CreateShipment manifests a shipment. There is no fallback: a response
// without a waybill is an error.
func (c *Client) CreateShipment(ctx context.Context, req ports.BookingRequest) (result *ports.BookingResult, err error) {
	const op = "create_shipment"

	c.logger.Info().Str("order_id", req.OrderID).Str("pincode", req.DestinationPincode).
		Str("mode", string(req.ShippingMode)).Msg("booking shipment")

	payload := ShipmentPayload{
		Name:           req.Consignee.Name,
		Address:        req.Consignee.Address,
		Pin:            req.DestinationPincode,
		City:           req.DestinationCity,
		State:          req.DestinationState,
		Country:        "India",
		Phone:          req.Consignee.Phone,
		Order:          req.OrderID,
		PaymentMode:    req.PaymentMode.CourierValue(),
		ProductsDesc:   req.Consignee.ProductsDesc,
		TotalAmount:    req.TotalAmount,
		Quantity:       max(req.Quantity, 1),
		Weight:         req.WeightGrams,
		ShipmentLength: req.Dimensions.Length,
		ShipmentWidth:  req.Dimensions.Width,
		ShipmentHeight: req.Dimensions.Height,
		ShippingMode:   string(req.ShippingMode),
	}
	if req.PaymentMode == domain.PaymentCOD {
		payload.CODAmount = req.CODAmount
	}

	spanCtx, finish := c.start(ctx, op, attribute.String("order_id", req.OrderID))
	defer func() { finish(err) }()

	resp, apiErr := c.apiClient.CreateShipment(spanCtx, &CreateRequest{
		Shipments:      []ShipmentPayload{payload},
		PickupLocation: PickupLocation{Name: c.config.PickupLocation},
	})
	if apiErr != nil {
		c.logger.Error().Err(apiErr).Str("order_id", req.OrderID).Msg("booking failed")
		return nil, classify(op, apiErr)
	}

	var pkg PackageOutcome
	if len(resp.Packages) > 0 {
		pkg = resp.Packages[0]
	}
	if pkg.Waybill == "" || strings.EqualFold(pkg.Status, "fail") {
		msg := strings.Join(pkg.Remarks, "; ")
		if msg == "" {
			msg = resp.Remark
		}
		if msg == "" {
			msg = "no waybill in courier response"
		}
		c.logger.Error().Str("order_id", req.OrderID).Str("remarks", msg).Msg("booking rejected")
		return nil, newGatewayError(op, KindRejected, msg)
	}

	result = &ports.BookingResult{
		AWB:            pkg.Waybill,
		CourierOrderID: pkg.RefNum,
		TrackingURL:    fmt.Sprintf(trackingURLFormat, pkg.Waybill),
	}

	// The manifest response carries no charge; ask for the final one.
	est := c.EstimateCost(ctx, ports.CostQuery{
		OriginPincode:      req.OriginPincode,
		DestinationPincode: req.DestinationPincode,
		Mode:               req.ShippingMode,
		WeightGrams:        req.WeightGrams,
		PaymentMode:        req.PaymentMode,
		CODAmount:          req.CODAmount,
	})
	if est.Source == domain.CostSourceAPI {
		cost := est.Amount
		breakdown := est.Breakdown
		result.Cost = &cost
		result.Breakdown = &breakdown
	}

	c.logger.Info().Str("order_id", req.OrderID).Str("awb", result.AWB).Msg("shipment booked")
	return result, nil
}

// ============================================================================
// Tracking
// ============================================================================

// GetTrackingInfo returns nil when the courier has no record or cannot be
// reached. It never returns an error.
func (c *Client) GetTrackingInfo(ctx context.Context, awb string) *domain.TrackingUpdate {
	if awb == "" {
		return nil
	}

	sh, err := c.track(ctx, awb)
	if err != nil {
		c.logger.Warn().Err(err).Str("awb", awb).Msg("tracking unavailable")
		return nil
	}
	if sh == nil {
		return nil
	}

	cs := ParseCourierStatus(sh.Status.Status, sh.Status.StatusType)
	if !cs.IsKnown() {
		c.logger.Warn().Str("awb", awb).Str("courier_status", sh.Status.Status).
			Str("status_type", sh.Status.StatusType).Str("mapping_version", StatusMappingVersion).
			Msg("unrecognised courier status")
	}

	update := &domain.TrackingUpdate{
		AWB:             awb,
		Status:          cs.Internal(),
		CourierStatus:   sh.Status.Status,
		CurrentLocation: sh.Status.StatusLocation,
		History:         make([]domain.TrackingScan, 0, len(sh.Scans)),
	}
	for _, s := range sh.Scans {
		ts, _ := parseCourierTime(s.ScanDetail.ScanDateTime)
		update.History = append(update.History, domain.TrackingScan{
			Status:    s.ScanDetail.Scan,
			Timestamp: ts,
			Location:  s.ScanDetail.ScannedLocation,
			Remarks:   s.ScanDetail.Instructions,
		})
	}
	if t, ok := parseCourierTime(sh.ExpectedDeliveryDate); ok {
		update.ExpectedDelivery = &t
	}
	if t, ok := parseCourierTime(sh.PickUpDate); ok {
		update.PickupActualDate = &t
	}
	return update
}

func (c *Client) track(ctx context.Context, awb string) (sh *TrackedShipment, err error) {
	ctx, finish := c.start(ctx, "track", attribute.String("awb", awb))
	defer func() { finish(err) }()

	resp, apiErr := c.apiClient.TrackShipment(ctx, awb)
	if apiErr != nil {
		ge := classify("track", apiErr)
		if ge.Kind == KindNotFound {
			return nil, nil
		}
		return nil, ge
	}
	if len(resp.ShipmentData) == 0 {
		return nil, nil
	}
	return &resp.ShipmentData[0].Shipment, nil
}

// ValidateEditEligibility classifies the courier's current status. Anything
// outside the mapping table is refused with its own reason.
func (c *Client) ValidateEditEligibility(ctx context.Context, awb string) ports.EditEligibility {
	sh, err := c.track(ctx, awb)
	if err != nil || sh == nil {
		if err != nil {
			c.logger.Warn().Err(err).Str("awb", awb).Msg("edit eligibility: tracking unavailable")
		}
		return ports.EditEligibility{Reason: "courier status unavailable"}
	}

	raw := sh.Status.Status
	cs := ParseCourierStatus(raw, sh.Status.StatusType)
	res := ports.EditEligibility{CurrentStatus: raw, Known: cs.IsKnown()}
	switch {
	case !cs.IsKnown():
		res.Reason = fmt.Sprintf("unrecognised courier status %q", raw)
	case cs.IsTerminal():
		res.Reason = fmt.Sprintf("shipment is %s at the courier", cs)
	case !cs.IsEditable():
		res.Reason = fmt.Sprintf("courier does not accept edits while %s", cs)
	default:
		res.Eligible = true
	}
	return res
}

// ============================================================================
// Pickup
// ============================================================================

// SchedulePickup raises a pickup request. A duplicate for the same location
// and date is reported as AlreadyExists, not as an error.
func (c *Client) SchedulePickup(ctx context.Context, req ports.PickupSchedule) (result *ports.PickupResult, err error) {
	const op = "schedule_pickup"

	location := req.Location
	if location == "" {
		location = c.config.PickupLocation
	}

	ctx, finish := c.start(ctx, op, attribute.String("pickup_date", req.Date))
	defer func() { finish(err) }()

	resp, apiErr := c.apiClient.CreatePickup(ctx, &PickupRequest{
		PickupTime:           req.Time,
		PickupDate:           req.Date,
		PickupLocation:       location,
		ExpectedPackageCount: req.PackageCount,
	})
	if apiErr != nil {
		return nil, classify(op, apiErr)
	}

	if resp.AlreadyExists {
		c.logger.Info().Str("location", location).Str("date", req.Date).Msg("pickup already requested")
	}
	return &ports.PickupResult{PickupID: resp.PickupID.String(), AlreadyExists: resp.AlreadyExists}, nil
}

// ============================================================================
// Documents
// ============================================================================

// GenerateLabel fetches the packing slip. pdfSize is "A4" or "4R".
func (c *Client) GenerateLabel(ctx context.Context, awb, pdfSize string) (doc *ports.Document, err error) {
	const op = "label"
	if pdfSize == "" {
		pdfSize = defaultPDFSize
	}

	ctx, finish := c.start(ctx, op, attribute.String("awb", awb))
	defer func() { finish(err) }()

	resp, apiErr := c.apiClient.PackingSlip(ctx, awb, pdfSize)
	if apiErr != nil {
		return nil, classify(op, apiErr)
	}
	return documentFrom(op, resp)
}

// GenerateInvoice fetches the tax invoice.
func (c *Client) GenerateInvoice(ctx context.Context, awb string) (doc *ports.Document, err error) {
	const op = "invoice"

	ctx, finish := c.start(ctx, op, attribute.String("awb", awb))
	defer func() { finish(err) }()

	resp, apiErr := c.apiClient.Invoice(ctx, awb)
	if apiErr != nil {
		return nil, classify(op, apiErr)
	}
	return documentFrom(op, resp)
}

// documentFrom prefers the inline base64 PDF over the signed URL.
func documentFrom(op string, resp *DocumentResponse) (*ports.Document, error) {
	if resp == nil || len(resp.Packages) == 0 {
		return nil, newGatewayError(op, KindNotFound, "no document for waybill")
	}
	pkg := resp.Packages[0]
	if enc := pkg.PDFEncoding; enc != "" {
		if i := strings.Index(enc, "base64,"); i >= 0 {
			enc = enc[i+len("base64,"):]
		}
		if content, err := base64.StdEncoding.DecodeString(enc); err == nil && len(content) > 0 {
			return &ports.Document{Content: content, URL: pkg.PDFDownloadLink}, nil
		}
	}
	if pkg.PDFDownloadLink != "" {
		return &ports.Document{URL: pkg.PDFDownloadLink}, nil
	}
	return nil, newGatewayError(op, KindNotFound, "no document for waybill")
}

// FetchDocument downloads a document URL.
func (c *Client) FetchDocument(ctx context.Context, url string) (content []byte, err error) {
	const op = "download"

	ctx, finish := c.start(ctx, op)
	defer func() { finish(err) }()

	content, apiErr := c.apiClient.Download(ctx, url)
	if apiErr != nil {
		return nil, classify(op, apiErr)
	}
	return content, nil
}

// ============================================================================
// Mutations
// ============================================================================

// CancelShipment cancels a booked shipment at the courier.
func (c *Client) CancelShipment(ctx context.Context, awb string) (err error) {
	const op = "cancel"

	ctx, finish := c.start(ctx, op, attribute.String("awb", awb))
	defer func() { finish(err) }()

	resp, apiErr := c.apiClient.EditShipment(ctx, EditRequest{"waybill": awb, "cancellation": "true"})
	if apiErr != nil {
		c.logger.Error().Err(apiErr).Str("awb", awb).Msg("cancel failed")
		return classify(op, apiErr)
	}
	if !resp.Status {
		return newGatewayError(op, KindValidation, editMessage(resp, "cancellation refused"))
	}
	c.logger.Info().Str("awb", awb).Msg("shipment cancelled at courier")
	return nil
}

// EditShipment pushes field changes to the courier. admin_notes is local and
// never sent.
func (c *Client) EditShipment(ctx context.Context, awb string, fields map[string]any) (err error) {
	const op = "edit"

	req := EditRequest{"waybill": awb}
	for k, v := range fields {
		switch k {
		case "admin_notes":
			continue
		case "pt":
			if pm, ok := v.(domain.PaymentMode); ok {
				v = pm.CourierValue()
			}
		}
		req[k] = v
	}
	if len(req) == 1 {
		return nil
	}

	ctx, finish := c.start(ctx, op, attribute.String("awb", awb))
	defer func() { finish(err) }()

	resp, apiErr := c.apiClient.EditShipment(ctx, req)
	if apiErr != nil {
		c.logger.Error().Err(apiErr).Str("awb", awb).Msg("edit failed")
		return classify(op, apiErr)
	}
	if !resp.Status {
		return newGatewayError(op, KindValidation, editMessage(resp, "edit refused"))
	}
	return nil
}

func editMessage(resp *EditResponse, fallback string) string {
	switch {
	case resp.Error != "":
		return resp.Error
	case resp.Remark != "":
		return resp.Remark
	}
	return fallback
}

// ============================================================================
// Helpers
// ============================================================================

func (c *Client) originPincode(p string) string {
	if p != "" {
		return p
	}
	return c.config.OriginPincode
}

func modeCode(m domain.ShippingMode) string {
	if m == domain.ModeExpress {
		return "E"
	}
	return "S"
}

func chargePaymentType(m domain.PaymentMode) string {
	if m == domain.PaymentCOD {
		return "COD"
	}
	return "Pre-paid"
}

var courierTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseCourierTime parses the courier's zone-less timestamps as IST.
func parseCourierTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range courierTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, ist); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Ensure Client implements the gateway port.
var _ ports.CourierGateway = (*Client)(nil)
