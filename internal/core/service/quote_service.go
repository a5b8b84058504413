package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

var pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// QuoteService answers "can we ship there, and for how much" without
// touching any shipment.
type QuoteService struct {
	courier ports.CourierGateway
	cfg     ShipmentConfig
	logger  zerolog.Logger
	now     func() time.Time
}

func NewQuoteService(courier ports.CourierGateway, cfg ShipmentConfig, logger zerolog.Logger) *QuoteService {
	return &QuoteService{
		courier: courier,
		cfg:     cfg,
		logger:  logger.With().Str("component", "quote_service").Logger(),
		now:     time.Now,
	}
}

func (q *QuoteService) CheckServiceability(ctx context.Context, pincode string) ports.Serviceability {
	return q.courier.CheckServiceability(ctx, strings.TrimSpace(pincode))
}

// Estimate prices both modes and the transit time for the selected one. The
// courier is asked concurrently; every estimate degrades to the static
// tables, so only bad input fails.
func (q *QuoteService) Estimate(ctx context.Context, input ports.EstimateInput) (*ports.EstimateResult, error) {
	pin := strings.TrimSpace(input.DestinationPincode)
	if !pincodePattern.MatchString(pin) {
		return nil, domain.NewValidationError("invalid_pincode", "pincode", "must be exactly 6 digits")
	}
	if input.WeightGrams <= 0 || input.WeightGrams > maxWeightGrams {
		return nil, domain.NewValidationError("invalid_weight", "weight", fmt.Sprintf("must be greater than 0 and at most %d", maxWeightGrams))
	}
	mode := input.Mode
	if mode == "" {
		mode = domain.ModeSurface
	}
	if !mode.IsValid() {
		return nil, domain.NewValidationError("invalid_mode", "mode", "must be Surface or Express")
	}
	payment := input.PaymentMode
	if payment == "" {
		payment = domain.PaymentPrepaid
	}
	if !payment.IsValid() {
		return nil, domain.NewValidationError("invalid_payment_mode", "payment_type", fmt.Sprintf("unknown payment mode %q", payment))
	}

	res := &ports.EstimateResult{Serviceability: q.courier.CheckServiceability(ctx, pin)}
	city, state := input.DestinationCity, input.DestinationState
	if city == "" {
		city = res.Serviceability.City
	}
	if state == "" {
		state = res.Serviceability.State
	}

	cost := func(m domain.ShippingMode) ports.CostQuery {
		return ports.CostQuery{
			OriginPincode:      q.cfg.OriginPincode,
			DestinationPincode: pin,
			Mode:               m,
			WeightGrams:        input.WeightGrams,
			PaymentMode:        payment,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Selected = q.courier.EstimateCost(gctx, cost(mode))
		return nil
	})
	g.Go(func() error {
		res.Alternate = q.courier.EstimateCost(gctx, cost(mode.Alternate()))
		return nil
	})
	g.Go(func() error {
		res.TAT = q.courier.EstimateTAT(gctx, ports.TATQuery{
			OriginPincode:      q.cfg.OriginPincode,
			OriginState:        q.cfg.OriginState,
			DestinationPincode: pin,
			DestinationState:   state,
			DestinationCity:    city,
			Mode:               mode,
			PickupDate:         nextDay(q.now()),
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

var _ ports.QuoteService = (*QuoteService)(nil)
