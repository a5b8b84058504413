package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/giftkart/shipping-admin/internal/api/metrics"
	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/eligibility"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const (
	defaultDeliveryDays = 5
	defaultPageSize     = 20
	maxPageSize         = 100
	maxWeightGrams      = 50000
	maxDimensionCm      = 200

	// Keys accepted by EditShipment only while the shipment is not yet booked.
	fieldShippingMode = "shipping_mode"
	fieldPackageCount = "package_count"
)

// ShipmentConfig is the warehouse the shipments leave from.
type ShipmentConfig struct {
	OriginPincode string
	OriginState   string
}

// ShipmentService owns the shipment state machine from creation to booking.
type ShipmentService struct {
	shipments ports.ShipmentRepository
	orders    ports.OrderRepository
	courier   ports.CourierGateway
	pickups   ports.PickupService
	cfg       ShipmentConfig
	logger    zerolog.Logger
	now       func() time.Time
}

func NewShipmentService(
	shipments ports.ShipmentRepository,
	orders ports.OrderRepository,
	courier ports.CourierGateway,
	pickups ports.PickupService,
	cfg ShipmentConfig,
	logger zerolog.Logger,
) *ShipmentService {
	return &ShipmentService{
		shipments: shipments,
		orders:    orders,
		courier:   courier,
		pickups:   pickups,
		cfg:       cfg,
		logger:    logger.With().Str("component", "shipment_service").Logger(),
		now:       time.Now,
	}
}

// CreateShipment creates a pending_review shipment for an order, priced in the
// selected mode with the alternate mode quoted alongside.
func (s *ShipmentService) CreateShipment(ctx context.Context, input ports.CreateShipmentInput) (*domain.Shipment, error) {
	if input.PackageCount == 0 {
		input.PackageCount = 1
	}
	if input.ShippingMode == "" {
		input.ShippingMode = domain.ModeSurface
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}

	existing, err := s.shipments.FindByOrderID(ctx, input.OrderID)
	switch {
	case err == nil && existing.Status != domain.StatusCancelled:
		return nil, fmt.Errorf("create shipment for order %s: %w", input.OrderID, domain.ErrDuplicateShipment)
	case err != nil && !errors.Is(err, domain.ErrShipmentNotFound):
		return nil, fmt.Errorf("create shipment: %w", err)
	}

	payment := input.PaymentMode
	if payment == "" {
		payment = domain.ParsePaymentMode(string(order.PaymentMethod))
	}
	if !payment.IsValid() {
		return nil, domain.NewValidationError("invalid_payment_mode", "payment_mode", fmt.Sprintf("unknown payment mode %q", payment))
	}

	var codAmount float64
	if payment == domain.PaymentCOD {
		codAmount = order.TotalAmount
		if input.CODAmount != nil {
			codAmount = *input.CODAmount
		}
		if codAmount <= 0 {
			return nil, domain.NewValidationError("invalid_cod_amount", "cod_amount", "must be greater than zero for COD shipments")
		}
	}

	now := s.now()
	shipment := &domain.Shipment{
		ID:           uuid.NewString(),
		OrderID:      order.ID,
		WeightGrams:  input.WeightGrams,
		Dimensions:   input.Dimensions,
		PackageCount: input.PackageCount,
		ShippingMode: input.ShippingMode,
		PaymentMode:  payment,
		CODAmount:    codAmount,
		Consignee: domain.Consignee{
			Name:         order.Customer.Name,
			Phone:        order.Customer.Phone,
			Address:      order.Customer.Address,
			ProductsDesc: order.ItemsDescription,
		},
		OriginPincode:      s.cfg.OriginPincode,
		DestinationPincode: order.Customer.Pincode,
		DestinationCity:    order.Customer.City,
		DestinationState:   order.Customer.State,
		Status:             domain.StatusPendingReview,
		Editable:           true,
		EditHistory:        []domain.EditRecord{},
		TrackingHistory:    []domain.TrackingScan{},
		AdminNotes:         input.AdminNotes,
		EditedBy:           input.CreatedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.price(ctx, shipment); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	delivery := estimatedDelivery(order, now)
	shipment.EstimatedDelivery = &delivery

	if err := s.shipments.Create(ctx, shipment); err != nil {
		s.logger.Error().Err(err).Str("order_id", input.OrderID).Msg("failed to create shipment")
		return nil, fmt.Errorf("create shipment: %w", err)
	}

	metrics.ShipmentsCreatedTotal.WithLabelValues(string(shipment.ShippingMode)).Inc()
	s.logger.Info().
		Str("shipment_id", shipment.ID).
		Str("order_id", shipment.OrderID).
		Float64("estimated_cost", shipment.EstimatedCost).
		Str("cost_source", shipment.CostBreakdown.Source).
		Msg("shipment created")

	return shipment, nil
}

func validateCreate(in ports.CreateShipmentInput) error {
	var fields []domain.FieldError
	if strings.TrimSpace(in.OrderID) == "" {
		fields = append(fields, domain.FieldError{Field: "order_id", Message: "is required"})
	}
	if in.WeightGrams <= 0 || in.WeightGrams > maxWeightGrams {
		fields = append(fields, domain.FieldError{Field: "weight_grams", Message: fmt.Sprintf("must be greater than 0 and at most %d", maxWeightGrams)})
	}
	for name, v := range map[string]float64{
		"dimensions_cm.length": in.Dimensions.Length,
		"dimensions_cm.width":  in.Dimensions.Width,
		"dimensions_cm.height": in.Dimensions.Height,
	} {
		if v <= 0 || v > maxDimensionCm {
			fields = append(fields, domain.FieldError{Field: name, Message: fmt.Sprintf("must be greater than 0 and at most %d", maxDimensionCm)})
		}
	}
	if in.PackageCount < 1 {
		fields = append(fields, domain.FieldError{Field: "package_count", Message: "must be at least 1"})
	}
	if !in.ShippingMode.IsValid() {
		fields = append(fields, domain.FieldError{Field: "shipping_mode", Message: "must be Surface or Express"})
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &domain.ValidationError{Code: "invalid_shipment", Fields: fields}
}

// estimatedDelivery prefers the order's own promise, then its estimated days,
// then a fixed default. It never returns a zero time.
func estimatedDelivery(order *domain.Order, now time.Time) time.Time {
	if d := order.DeliveryMeta.ExpectedDeliveryDate; d != nil && !d.IsZero() {
		return *d
	}
	days := defaultDeliveryDays
	if order.DeliveryMeta.EstimatedDays > 0 {
		days = order.DeliveryMeta.EstimatedDays
	}
	return startOfDay(now).AddDate(0, 0, days)
}

// price sets estimated_cost and cost_breakdown from concurrent quotes for the
// selected and alternate modes.
func (s *ShipmentService) price(ctx context.Context, sh *domain.Shipment) error {
	query := func(mode domain.ShippingMode) ports.CostQuery {
		return ports.CostQuery{
			OriginPincode:      sh.OriginPincode,
			DestinationPincode: sh.DestinationPincode,
			Mode:               mode,
			WeightGrams:        sh.WeightGrams,
			PaymentMode:        sh.PaymentMode,
			CODAmount:          sh.CODAmount,
		}
	}

	var selected, alternate ports.CostEstimate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		selected = s.courier.EstimateCost(gctx, query(sh.ShippingMode))
		return nil
	})
	g.Go(func() error {
		alternate = s.courier.EstimateCost(gctx, query(sh.ShippingMode.Alternate()))
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	breakdown := selected.Breakdown
	breakdown.Total = selected.Amount
	breakdown.Source = selected.Source
	breakdown.ModeComparison = []domain.ModeQuote{
		{Mode: selected.Mode, Amount: selected.Amount, Source: selected.Source},
		{Mode: alternate.Mode, Amount: alternate.Amount, Source: alternate.Source},
	}
	sh.EstimatedCost = selected.Amount
	sh.CostBreakdown = breakdown
	return nil
}

func (s *ShipmentService) GetShipment(ctx context.Context, id string) (*domain.Shipment, error) {
	return s.shipments.FindByID(ctx, id)
}

// ListShipments returns a paginated, filtered list of shipments.
func (s *ShipmentService) ListShipments(ctx context.Context, input ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	for _, st := range input.Statuses {
		if !st.IsValid() {
			return nil, domain.NewValidationError("invalid_status", "status", fmt.Sprintf("unknown status %q", st))
		}
	}

	items, total, err := s.shipments.List(ctx, ports.ListShipmentsFilter{
		Statuses: input.Statuses,
		Mode:     input.Mode,
		Search:   strings.TrimSpace(input.Search),
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}

	return &ports.ListShipmentsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (s *ShipmentService) Stats(ctx context.Context) (*ports.ShipmentStats, error) {
	return s.shipments.Stats(ctx)
}

// EditShipment applies a partial update. Before booking the edit is local and
// may also change shipping_mode and package_count. After booking the fields
// must pass the whitelist, the local status table and the courier's own
// status check, and the courier is updated before the local row.
func (s *ShipmentService) EditShipment(ctx context.Context, input ports.EditShipmentInput) (*domain.Shipment, error) {
	sh, err := s.shipments.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if len(input.Fields) == 0 {
		return nil, domain.NewValidationError("invalid_edit_fields", "fields", "no fields to update")
	}

	if sh.Status.IsBooked() {
		err = s.editBooked(ctx, sh, input.Fields)
	} else {
		err = s.editLocal(ctx, sh, input.Fields)
	}
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, len(input.Fields))
	for k := range input.Fields {
		changed = append(changed, k)
	}
	sort.Strings(changed)
	sh.RecordEdit(changed, input.EditedBy, s.now())

	if err := s.shipments.UpdateFields(ctx, sh, ports.EditFields...); err != nil {
		return nil, fmt.Errorf("edit shipment: %w", err)
	}

	s.logger.Info().Str("shipment_id", sh.ID).Strs("fields", changed).Str("edited_by", input.EditedBy).Msg("shipment edited")
	return sh, nil
}

func (s *ShipmentService) editLocal(ctx context.Context, sh *domain.Shipment, fields map[string]any) error {
	if !sh.Editable {
		return domain.NewPreconditionError("shipment %s is locked", sh.ID)
	}

	rest := make(map[string]any, len(fields))
	var mode domain.ShippingMode
	packages := 0
	var errs []domain.FieldError
	for k, v := range fields {
		switch k {
		case fieldShippingMode:
			str, _ := v.(string)
			mode = domain.ShippingMode(str)
			if !mode.IsValid() {
				errs = append(errs, domain.FieldError{Field: k, Message: "must be Surface or Express"})
			}
		case fieldPackageCount:
			n, ok := toInt(v)
			if !ok || n < 1 {
				errs = append(errs, domain.FieldError{Field: k, Message: "must be a whole number of at least 1"})
			}
			packages = n
		default:
			rest[k] = v
		}
	}

	normalized := map[string]any{}
	if len(rest) > 0 {
		res := eligibility.ValidateEditFields(rest)
		errs = append(errs, res.Errors...)
		normalized = res.Normalized
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return &domain.ValidationError{Code: "invalid_edit_fields", Fields: errs}
	}
	if err := checkModeChange(sh, normalized); err != nil {
		return err
	}

	applyFields(sh, normalized)
	if mode != "" {
		sh.ShippingMode = mode
	}
	if packages > 0 {
		sh.PackageCount = packages
	}

	if affectsCost(fields) {
		if err := s.price(ctx, sh); err != nil {
			return fmt.Errorf("edit shipment: %w", err)
		}
	}
	return nil
}

func (s *ShipmentService) editBooked(ctx context.Context, sh *domain.Shipment, fields map[string]any) error {
	res := eligibility.ValidateEditFields(fields)
	if !res.Valid {
		return &domain.ValidationError{Code: "invalid_edit_fields", Fields: res.Errors}
	}

	if d := eligibility.IsStatusEditable(sh.Status, sh.PaymentMode); !d.Allowed {
		return domain.NewPreconditionError("%s", d.Reason)
	}
	if err := checkModeChange(sh, res.Normalized); err != nil {
		return err
	}

	courierFields := make(map[string]any, len(res.Normalized))
	for k, v := range res.Normalized {
		if k != eligibility.FieldAdminNotes {
			courierFields[k] = v
		}
	}
	if len(courierFields) > 0 {
		elig := s.courier.ValidateEditEligibility(ctx, sh.AWB)
		if !elig.Eligible {
			return domain.NewPreconditionError("%s", elig.Reason)
		}
		if err := s.courier.EditShipment(ctx, sh.AWB, courierFields); err != nil {
			s.logger.Error().Err(err).Str("shipment_id", sh.ID).Str("awb", sh.AWB).Msg("courier edit failed")
			return fmt.Errorf("edit shipment: %w", err)
		}
	}

	applyFields(sh, res.Normalized)
	return nil
}

// checkModeChange validates a pt change against the shipment's current mode.
func checkModeChange(sh *domain.Shipment, normalized map[string]any) error {
	next, ok := normalized[eligibility.FieldPaymentType].(domain.PaymentMode)
	if !ok {
		return nil
	}
	cod := sh.CODAmount
	if v, ok := normalized[eligibility.FieldCODAmount].(float64); ok {
		cod = v
	}
	if mc := eligibility.ValidatePaymentModeChange(sh.PaymentMode, next, cod); !mc.Valid {
		return domain.NewValidationError("invalid_payment_mode_change", eligibility.FieldPaymentType, mc.Reason)
	}
	return nil
}

func applyFields(sh *domain.Shipment, normalized map[string]any) {
	for k, v := range normalized {
		switch k {
		case eligibility.FieldName:
			sh.Consignee.Name = v.(string)
		case eligibility.FieldPhone:
			sh.Consignee.Phone = v.(string)
		case eligibility.FieldAddress:
			sh.Consignee.Address = v.(string)
		case eligibility.FieldProductsDesc:
			sh.Consignee.ProductsDesc = v.(string)
		case eligibility.FieldWeight:
			sh.WeightGrams = v.(float64)
		case eligibility.FieldLength:
			sh.Dimensions.Length = v.(float64)
		case eligibility.FieldWidth:
			sh.Dimensions.Width = v.(float64)
		case eligibility.FieldHeight:
			sh.Dimensions.Height = v.(float64)
		case eligibility.FieldAdminNotes:
			sh.AdminNotes = v.(string)
		}
	}
	// pt before cod_amount: a switch to Prepaid clears the amount.
	if pt, ok := normalized[eligibility.FieldPaymentType].(domain.PaymentMode); ok {
		sh.PaymentMode = pt
		if pt != domain.PaymentCOD {
			sh.CODAmount = 0
		}
	}
	if cod, ok := normalized[eligibility.FieldCODAmount].(float64); ok && sh.PaymentMode == domain.PaymentCOD {
		sh.CODAmount = cod
	}
}

func affectsCost(fields map[string]any) bool {
	for _, k := range []string{eligibility.FieldWeight, eligibility.FieldPaymentType, eligibility.FieldCODAmount, fieldShippingMode} {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// RecalculateCost re-prices a shipment that has not been booked yet. Only
// estimated_cost and cost_breakdown change.
func (s *ShipmentService) RecalculateCost(ctx context.Context, id string) (*domain.Shipment, error) {
	sh, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh.Status.IsBooked() {
		return nil, domain.NewPreconditionError("shipment %s is %s; its cost is fixed at booking", sh.ID, sh.Status)
	}
	if err := s.price(ctx, sh); err != nil {
		return nil, fmt.Errorf("recalculate cost: %w", err)
	}
	if err := s.shipments.UpdateFields(ctx, sh, ports.CostFields...); err != nil {
		return nil, fmt.Errorf("recalculate cost: %w", err)
	}
	return sh, nil
}

// ApproveShipment marks the shipment approved, then books it with the courier.
// A failed booking returns the row to pending_review with the reason recorded
// and retry_count incremented; the courier error is returned.
func (s *ShipmentService) ApproveShipment(ctx context.Context, id, approvedBy string) (*domain.Shipment, error) {
	sh, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh.Status != domain.StatusPendingReview {
		return nil, domain.NewPreconditionError("shipment %s is %s; only pending_review shipments can be approved", sh.ID, sh.Status)
	}

	order, err := s.orders.FindByID(ctx, sh.OrderID)
	if err != nil {
		return nil, fmt.Errorf("approve shipment: %w", err)
	}

	now := s.now()
	sh.Status = domain.StatusApproved
	sh.ApprovedBy = approvedBy
	sh.ApprovedAt = &now
	if err := s.shipments.Update(ctx, sh); err != nil {
		return nil, fmt.Errorf("approve shipment: %w", err)
	}

	booking, err := s.courier.CreateShipment(ctx, ports.BookingRequest{
		OrderID:            sh.OrderID,
		Consignee:          sh.Consignee,
		DestinationPincode: sh.DestinationPincode,
		DestinationCity:    sh.DestinationCity,
		DestinationState:   sh.DestinationState,
		PaymentMode:        sh.PaymentMode,
		CODAmount:          sh.CODAmount,
		TotalAmount:        order.TotalAmount,
		Quantity:           sh.PackageCount,
		WeightGrams:        sh.WeightGrams,
		Dimensions:         sh.Dimensions,
		ShippingMode:       sh.ShippingMode,
		OriginPincode:      sh.OriginPincode,
	})
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("rolled_back").Inc()
		if _, rbErr := s.shipments.MarkBookingFailed(ctx, sh.ID, err.Error(), s.now()); rbErr != nil {
			s.logger.Error().Err(rbErr).Str("shipment_id", sh.ID).Msg("failed to roll back shipment after booking failure")
		}
		s.logger.Warn().Err(err).Str("shipment_id", sh.ID).Msg("booking failed, shipment returned to review")
		return nil, fmt.Errorf("approve shipment: %w", err)
	}

	placedAt := s.now()
	pickupDay := nextDay(placedAt)
	sh.AWB = booking.AWB
	sh.Courier = s.courier.Name()
	sh.DelhiveryOrderID = booking.CourierOrderID
	sh.TrackingURL = booking.TrackingURL
	sh.LabelURL = booking.LabelURL
	sh.InvoiceURL = booking.InvoiceURL
	sh.ManifestURL = booking.ManifestURL
	sh.Status = domain.StatusPlaced
	sh.PlacedAt = &placedAt
	sh.PickupScheduledDate = &pickupDay
	sh.FailedReason = ""
	if sh.ActualCost == nil {
		cost := sh.EstimatedCost
		if booking.Cost != nil {
			cost = *booking.Cost
		}
		sh.ActualCost = &cost
	}
	if booking.Breakdown != nil {
		b := *booking.Breakdown
		b.ModeComparison = sh.CostBreakdown.ModeComparison
		sh.CostBreakdown = b
	}
	sh.Lock()

	// Until the AWB is stored no sync or push can reach this row.
	if err := s.shipments.Update(ctx, sh); err != nil {
		// The courier booking stands; the row must be repaired from the AWB.
		s.logger.Error().Err(err).Str("shipment_id", sh.ID).Str("awb", sh.AWB).Msg("booked shipment could not be saved")
		return nil, fmt.Errorf("approve shipment: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues("booked").Inc()
	metrics.StatusTransitionsTotal.WithLabelValues(string(domain.StatusPlaced), "admin").Inc()
	s.logger.Info().Str("shipment_id", sh.ID).Str("awb", sh.AWB).Str("approved_by", approvedBy).Msg("shipment booked")

	if err := s.orders.UpdateStatus(ctx, sh.OrderID, domain.OrderConfirmed, nil); err != nil {
		s.logger.Error().Err(err).Str("order_id", sh.OrderID).Msg("failed to confirm order after booking")
	}

	s.schedulePickup(ctx, sh)
	return sh, nil
}

// schedulePickup reserves tomorrow's pickup for a freshly booked shipment.
// Failures are logged; the booking stands.
func (s *ShipmentService) schedulePickup(ctx context.Context, sh *domain.Shipment) {
	if s.pickups == nil {
		return
	}
	p, err := s.pickups.SchedulePickup(ctx, ports.SchedulePickupInput{
		Date:         pickupDate(*sh.PickupScheduledDate),
		PackageCount: sh.PackageCount,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("shipment_id", sh.ID).Msg("pickup scheduling failed")
		return
	}
	if p.CourierPickupID == "" || p.CourierPickupID == sh.DelhiveryPickupID {
		return
	}
	sh.DelhiveryPickupID = p.CourierPickupID
	if err := s.shipments.UpdateFields(ctx, sh, ports.FieldDelhiveryPickupID); err != nil {
		s.logger.Warn().Err(err).Str("shipment_id", sh.ID).Msg("failed to store pickup id")
	}
}

// BulkApprove approves each shipment in turn. One failure never stops the batch.
func (s *ShipmentService) BulkApprove(ctx context.Context, ids []string, approvedBy string) ports.BulkResult {
	res := ports.BulkResult{Succeeded: []string{}, Failed: []ports.BulkFailure{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			res.Failed = append(res.Failed, ports.BulkFailure{ID: id, Error: err.Error()})
			continue
		}
		if _, err := s.ApproveShipment(ctx, id, approvedBy); err != nil {
			res.Failed = append(res.Failed, ports.BulkFailure{ID: id, Error: err.Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	s.logger.Info().Int("succeeded", len(res.Succeeded)).Int("failed", len(res.Failed)).Msg("bulk approve finished")
	return res
}

// CancelShipment moves any non-terminal shipment straight to cancelled. Booked
// shipments are cancelled at the courier first; a courier error leaves the
// shipment untouched.
func (s *ShipmentService) CancelShipment(ctx context.Context, id, cancelledBy string) (*domain.Shipment, error) {
	sh, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sh.Status.CanTransitionTo(domain.StatusCancelled) {
		return nil, fmt.Errorf("cancel shipment: %w (from %s to %s)", domain.ErrInvalidTransition, sh.Status, domain.StatusCancelled)
	}

	if sh.AWB != "" {
		if err := s.courier.CancelShipment(ctx, sh.AWB); err != nil {
			s.logger.Error().Err(err).Str("shipment_id", sh.ID).Str("awb", sh.AWB).Msg("courier cancellation failed")
			return nil, fmt.Errorf("cancel shipment: %w", err)
		}
	}

	sh.Status = domain.StatusCancelled
	sh.EditedBy = cancelledBy
	sh.Lock()
	if err := s.shipments.UpdateFields(ctx, sh, ports.CancelFields...); err != nil {
		return nil, fmt.Errorf("cancel shipment: %w", err)
	}
	metrics.StatusTransitionsTotal.WithLabelValues(string(domain.StatusCancelled), "admin").Inc()

	if sh.AWB != "" {
		if err := s.orders.UpdateStatus(ctx, sh.OrderID, domain.OrderCancelled, nil); err != nil {
			s.logger.Error().Err(err).Str("order_id", sh.OrderID).Msg("failed to cancel order after shipment cancellation")
		}
	}

	s.logger.Info().Str("shipment_id", sh.ID).Str("cancelled_by", cancelledBy).Msg("shipment cancelled")
	return sh, nil
}

// CheckEligibility reports whether the shipment can be edited right now.
func (s *ShipmentService) CheckEligibility(ctx context.Context, id string) (*ports.EligibilityReport, error) {
	sh, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sh.Status.IsBooked() {
		local := eligibility.Decision{Allowed: sh.Editable}
		if !sh.Editable {
			local.Reason = fmt.Sprintf("shipment %s is locked", sh.ID)
		}
		return &ports.EligibilityReport{Editable: local.Allowed, Reason: local.Reason, Local: local}, nil
	}

	local := eligibility.IsStatusEditable(sh.Status, sh.PaymentMode)
	courier := s.courier.ValidateEditEligibility(ctx, sh.AWB)
	report := &ports.EligibilityReport{
		Editable: local.Allowed && courier.Eligible,
		Local:    local,
		Courier:  &courier,
	}
	switch {
	case !local.Allowed:
		report.Reason = local.Reason
	case !courier.Eligible:
		report.Reason = courier.Reason
	}
	return report, nil
}

var _ ports.ShipmentService = (*ShipmentService)(nil)
