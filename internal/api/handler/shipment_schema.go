package handler

import (
	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// --- Request types ---

type dimensionsRequest struct {
	Length float64 `json:"length" validate:"gte=0"`
	Width  float64 `json:"width"  validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

type createShipmentRequest struct {
	OrderID      string            `json:"order_id"      validate:"required"`
	WeightGrams  float64           `json:"weight_grams"  validate:"required,gt=0"`
	Dimensions   dimensionsRequest `json:"dimensions_cm"`
	PackageCount int               `json:"package_count" validate:"gte=0"`
	ShippingMode string            `json:"shipping_mode" validate:"omitempty,oneof=Surface Express"`
	PaymentMode  string            `json:"payment_mode"`
	CODAmount    *float64          `json:"cod_amount"    validate:"omitempty,gte=0"`
	AdminNotes   string            `json:"admin_notes"`
}

type editShipmentRequest struct {
	Fields map[string]any `json:"fields" validate:"required,min=1"`
}

type bulkIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,required"`
}

type listShipmentsQuery struct {
	Status   string `query:"status"`
	Mode     string `query:"mode"      validate:"omitempty,oneof=Surface Express"`
	Search   string `query:"search"`
	DateFrom string `query:"date_from"`
	DateTo   string `query:"date_to"`
	Page     int    `query:"page"      validate:"gte=0"`
	Limit    int    `query:"limit"     validate:"gte=0"`
}

type schedulePickupRequest struct {
	Location     string `json:"pickup_location"`
	Date         string `json:"pickup_date"`
	Time         string `json:"pickup_time"`
	PackageCount int    `json:"expected_package_count" validate:"gte=0"`
}

type listPickupsQuery struct {
	From string `query:"from"`
	To   string `query:"to"`
}

type estimateQuery struct {
	Pincode     string  `query:"pincode"      validate:"required,len=6,numeric"`
	Weight      float64 `query:"weight"       validate:"required,gt=0"`
	Mode        string  `query:"mode"         validate:"omitempty,oneof=Surface Express"`
	PaymentType string  `query:"payment_type"`
	City        string  `query:"city"`
	State       string  `query:"state"`
}

// --- Response types ---

type listShipmentsResponse struct {
	Items      []*domain.Shipment `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

type bulkResponse struct {
	Succeeded []string            `json:"succeeded"`
	Failed    []ports.BulkFailure `json:"failed"`
}

type syncResponse struct {
	Message string             `json:"message"`
	Summary *ports.SyncSummary `json:"summary,omitempty"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}
