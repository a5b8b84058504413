package handler

import (
	"strings"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const queryDateLayout = "2006-01-02"

// --- Request → Service input ---

func toCreateInput(req createShipmentRequest, createdBy string) ports.CreateShipmentInput {
	return ports.CreateShipmentInput{
		OrderID:     strings.TrimSpace(req.OrderID),
		WeightGrams: req.WeightGrams,
		Dimensions: domain.Dimensions{
			Length: req.Dimensions.Length,
			Width:  req.Dimensions.Width,
			Height: req.Dimensions.Height,
		},
		PackageCount: req.PackageCount,
		ShippingMode: domain.ShippingMode(req.ShippingMode),
		PaymentMode:  domain.ParsePaymentMode(req.PaymentMode),
		CODAmount:    req.CODAmount,
		AdminNotes:   req.AdminNotes,
		CreatedBy:    createdBy,
	}
}

// toListInput parses the comma-separated status list and the calendar-day
// bounds. date_to covers the whole day.
func toListInput(q listShipmentsQuery) (ports.ListShipmentsInput, error) {
	in := ports.ListShipmentsInput{
		Mode:   domain.ShippingMode(q.Mode),
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	}

	for _, s := range strings.Split(q.Status, ",") {
		if s = strings.TrimSpace(s); s != "" {
			in.Statuses = append(in.Statuses, domain.ShipmentStatus(s))
		}
	}

	if q.DateFrom != "" {
		t, err := time.Parse(queryDateLayout, q.DateFrom)
		if err != nil {
			return in, domain.NewValidationError("invalid_request", "date_from", "must be YYYY-MM-DD")
		}
		in.DateFrom = t
	}
	if q.DateTo != "" {
		t, err := time.Parse(queryDateLayout, q.DateTo)
		if err != nil {
			return in, domain.NewValidationError("invalid_request", "date_to", "must be YYYY-MM-DD")
		}
		in.DateTo = t.Add(24*time.Hour - time.Nanosecond)
	}
	if !in.DateFrom.IsZero() && !in.DateTo.IsZero() && in.DateTo.Before(in.DateFrom) {
		return in, domain.NewValidationError("invalid_request", "date_to", "must not be before date_from")
	}
	return in, nil
}

func toEstimateInput(q estimateQuery) ports.EstimateInput {
	return ports.EstimateInput{
		DestinationPincode: q.Pincode,
		DestinationCity:    q.City,
		DestinationState:   q.State,
		WeightGrams:        q.Weight,
		PaymentMode:        domain.ParsePaymentMode(q.PaymentType),
		Mode:               domain.ShippingMode(q.Mode),
	}
}

// --- Service output → Response ---

func toListResponse(r *ports.ListShipmentsResult) listShipmentsResponse {
	items := r.Items
	if items == nil {
		items = []*domain.Shipment{}
	}
	return listShipmentsResponse{
		Items:      items,
		Total:      r.Total,
		Page:       r.Page,
		Limit:      r.Limit,
		TotalPages: r.TotalPages,
	}
}

func toBulkResponse(r ports.BulkResult) bulkResponse {
	return bulkResponse{Succeeded: r.Succeeded, Failed: r.Failed}
}
