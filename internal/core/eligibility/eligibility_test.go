package eligibility_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/eligibility"
)

var allModes = []domain.PaymentMode{
	domain.PaymentCOD, domain.PaymentPrepaid, domain.PaymentPickup, domain.PaymentREPL,
}

func TestIsStatusEditable_TerminalAlwaysRefused(t *testing.T) {
	terminal := []domain.ShipmentStatus{
		domain.StatusDelivered, domain.StatusFailed, domain.StatusRTODelivered, domain.StatusCancelled,
	}
	for _, status := range terminal {
		for _, mode := range allModes {
			d := eligibility.IsStatusEditable(status, mode)
			assert.False(t, d.Allowed, "%s/%s", status, mode)
			assert.NotEmpty(t, d.Reason)
		}
	}
}

func TestIsStatusEditable_ModeTable(t *testing.T) {
	tests := []struct {
		status  domain.ShipmentStatus
		mode    domain.PaymentMode
		allowed bool
	}{
		{domain.StatusPlaced, domain.PaymentCOD, true},
		{domain.StatusPendingPickup, domain.PaymentCOD, true},
		{domain.StatusPickedUp, domain.PaymentPrepaid, true},
		{domain.StatusPickedUp, domain.PaymentREPL, true},
		{domain.StatusInTransit, domain.PaymentCOD, false},
		{domain.StatusOutForDelivery, domain.PaymentPrepaid, false},
		{domain.StatusPendingPickup, domain.PaymentPickup, true},
		{domain.StatusPlaced, domain.PaymentPickup, false},
		{domain.StatusPickedUp, domain.PaymentPickup, false},
		{domain.StatusPlaced, domain.PaymentMode("Wallet"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.mode), func(t *testing.T) {
			d := eligibility.IsStatusEditable(tt.status, tt.mode)
			assert.Equal(t, tt.allowed, d.Allowed, d.Reason)
		})
	}
}

func TestValidatePaymentModeChange(t *testing.T) {
	tests := []struct {
		name    string
		current domain.PaymentMode
		next    domain.PaymentMode
		amount  float64
		valid   bool
	}{
		{"cod noop", domain.PaymentCOD, domain.PaymentCOD, 500, false},
		{"cod noop zero", domain.PaymentCOD, domain.PaymentCOD, 0, false},
		{"prepaid noop", domain.PaymentPrepaid, domain.PaymentPrepaid, 0, false},
		{"prepaid to cod zero", domain.PaymentPrepaid, domain.PaymentCOD, 0, false},
		{"prepaid to cod negative", domain.PaymentPrepaid, domain.PaymentCOD, -10, false},
		{"prepaid to cod", domain.PaymentPrepaid, domain.PaymentCOD, 500, true},
		{"cod to prepaid", domain.PaymentCOD, domain.PaymentPrepaid, 0, true},
		{"pickup to cod", domain.PaymentPickup, domain.PaymentCOD, 500, false},
		{"repl to prepaid", domain.PaymentREPL, domain.PaymentPrepaid, 0, false},
		{"cod to pickup", domain.PaymentCOD, domain.PaymentPickup, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := eligibility.ValidatePaymentModeChange(tt.current, tt.next, tt.amount)
			assert.Equal(t, tt.valid, res.Valid, res.Reason)
			if !tt.valid {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestValidateEditFields_AcceptsWhitelist(t *testing.T) {
	res := eligibility.ValidateEditFields(map[string]any{
		"name":            "Asha Rao",
		"phone":           "+91 98765-43210",
		"add":             "12 MG Road, Bengaluru",
		"products_desc":   "Gift hamper",
		"weight":          1200.0,
		"shipment_length": 30,
		"shipment_width":  "20",
		"shipment_height": 10.5,
		"pt":              "Pre-paid",
		"cod_amount":      0.0,
		"admin_notes":     "fragile",
	})

	require.True(t, res.Valid, "%v", res.Errors)
	assert.Equal(t, "9876543210", res.Normalized["phone"])
	assert.Equal(t, domain.PaymentPrepaid, res.Normalized["pt"])
	assert.Equal(t, 20.0, res.Normalized["shipment_width"])
}

func TestValidateEditFields_RejectsUnknownKeys(t *testing.T) {
	res := eligibility.ValidateEditFields(map[string]any{
		"name":   "Asha",
		"status": "delivered",
		"awb":    "123",
	})

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "awb", res.Errors[0].Field)
	assert.Equal(t, "status", res.Errors[1].Field)
}

func TestValidateEditFields_Constraints(t *testing.T) {
	tests := []struct {
		field string
		value any
		ok    bool
	}{
		{"name", "A", false},
		{"name", " Al ", true},
		{"phone", "12345", false},
		{"phone", "09876543210", true},
		{"phone", "919876543210", true},
		{"weight", 0.0, false},
		{"weight", 50000.0, true},
		{"weight", 50000.5, false},
		{"weight", "heavy", false},
		{"shipment_length", 200, true},
		{"shipment_length", 201, false},
		{"shipment_height", -1, false},
		{"pt", "Pickup", false},
		{"pt", "cod", true},
		{"cod_amount", -5, false},
		{"add", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			res := eligibility.ValidateEditFields(map[string]any{tt.field: tt.value})
			assert.Equal(t, tt.ok, res.Valid, "%s=%v: %v", tt.field, tt.value, res.Errors)
		})
	}
}

func TestValidateEditFields_Empty(t *testing.T) {
	res := eligibility.ValidateEditFields(map[string]any{})
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 1)
}
