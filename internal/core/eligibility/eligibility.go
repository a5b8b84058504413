// Package eligibility decides whether a booked shipment may be edited at the
// courier and whether a payment-mode conversion is legal. Everything here is
// pure: no I/O, no clock, no logging.
package eligibility

import (
	"fmt"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// Decision is the outcome of a status check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// editableByMode lists the internal statuses during which the courier accepts
// edits, per payment mode.
var editableByMode = map[domain.PaymentMode][]domain.ShipmentStatus{
	domain.PaymentCOD:     {domain.StatusPlaced, domain.StatusPendingPickup, domain.StatusPickedUp},
	domain.PaymentPrepaid: {domain.StatusPlaced, domain.StatusPendingPickup, domain.StatusPickedUp},
	domain.PaymentREPL:    {domain.StatusPlaced, domain.StatusPendingPickup, domain.StatusPickedUp},
	domain.PaymentPickup:  {domain.StatusPendingPickup},
}

// IsStatusEditable reports whether a shipment in status with the given payment
// mode may be edited. Terminal statuses are refused after the table lookup,
// whatever the table says.
func IsStatusEditable(status domain.ShipmentStatus, mode domain.PaymentMode) Decision {
	d := lookup(status, mode)
	if status.IsTerminal() {
		return Decision{Allowed: false, Reason: fmt.Sprintf("shipment is %s and can no longer be edited", status)}
	}
	return d
}

func lookup(status domain.ShipmentStatus, mode domain.PaymentMode) Decision {
	allowed, ok := editableByMode[mode]
	if !ok {
		return Decision{Allowed: false, Reason: fmt.Sprintf("unknown payment mode %q", mode)}
	}
	for _, s := range allowed {
		if s == status {
			return Decision{Allowed: true}
		}
	}
	return Decision{
		Allowed: false,
		Reason:  fmt.Sprintf("%s shipments cannot be edited while %s", mode, status),
	}
}

// ModeChange is the outcome of a payment-mode conversion check.
type ModeChange struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ValidatePaymentModeChange allows only COD <-> Prepaid. Converting into COD
// needs a positive collectable amount. Same-mode requests are rejected.
func ValidatePaymentModeChange(current, next domain.PaymentMode, codAmount float64) ModeChange {
	if current == next {
		return ModeChange{Reason: fmt.Sprintf("payment mode is already %s", current)}
	}
	if current == domain.PaymentPickup || current == domain.PaymentREPL {
		return ModeChange{Reason: fmt.Sprintf("%s shipments cannot change payment mode", current)}
	}
	if !isConvertible(current) || !isConvertible(next) {
		return ModeChange{Reason: fmt.Sprintf("cannot convert %s to %s", current, next)}
	}
	if next == domain.PaymentCOD && codAmount <= 0 {
		return ModeChange{Reason: "cod_amount must be greater than zero when converting to COD"}
	}
	return ModeChange{Valid: true}
}

func isConvertible(m domain.PaymentMode) bool {
	return m == domain.PaymentCOD || m == domain.PaymentPrepaid
}
