package domain

import "strings"

// PaymentMode is the courier payment type of a shipment.
type PaymentMode string

const (
	PaymentCOD     PaymentMode = "COD"
	PaymentPrepaid PaymentMode = "Prepaid"
	PaymentPickup  PaymentMode = "Pickup"
	PaymentREPL    PaymentMode = "REPL"
)

// ParsePaymentMode accepts the spellings used by the storefront and the courier
// ("Pre-paid", "prepaid", "cod"). Unknown values are returned as-is.
func ParsePaymentMode(s string) PaymentMode {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "cod":
		return PaymentCOD
	case "prepaid":
		return PaymentPrepaid
	case "pickup":
		return PaymentPickup
	case "repl":
		return PaymentREPL
	}
	return PaymentMode(s)
}

// IsValid reports whether m is a known payment mode.
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentCOD, PaymentPrepaid, PaymentPickup, PaymentREPL:
		return true
	}
	return false
}

// CourierValue is the spelling the courier API expects in the "pt" field.
func (m PaymentMode) CourierValue() string {
	if m == PaymentPrepaid {
		return "Pre-paid"
	}
	return string(m)
}
