package domain

import "time"

// TrackingUpdate is a normalized courier tracking result, from polling or push.
// An empty Status means the courier status was not recognised and the current
// shipment status must be kept.
type TrackingUpdate struct {
	AWB              string
	Status           ShipmentStatus
	CourierStatus    string
	History          []TrackingScan
	ExpectedDelivery *time.Time
	CurrentLocation  string
	PickupActualDate *time.Time
}
