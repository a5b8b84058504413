package domain

import "time"

// PickupStatus is the state of a daily pickup request.
type PickupStatus string

const (
	PickupActive    PickupStatus = "active"
	PickupFailed    PickupStatus = "failed"
	PickupCompleted PickupStatus = "completed"
)

// PickupDateLayout is the storage and courier format of pickup dates.
const PickupDateLayout = "2006-01-02"

// DailyPickup aggregates every package handed over at one location on one day.
// At most one active record exists per (PickupLocation, PickupDate).
type DailyPickup struct {
	ID                   string       `json:"id" bson:"_id"`
	PickupLocation       string       `json:"pickup_location" bson:"pickup_location"`
	PickupDate           string       `json:"pickup_date" bson:"pickup_date"`
	PickupTime           string       `json:"pickup_time" bson:"pickup_time"`
	ExpectedPackageCount int          `json:"expected_package_count" bson:"expected_package_count"`
	CourierPickupID      string       `json:"courier_pickup_id,omitempty" bson:"courier_pickup_id,omitempty"`
	Status               PickupStatus `json:"status" bson:"status"`
	FailedReason         string       `json:"failed_reason,omitempty" bson:"failed_reason,omitempty"`
	CreatedAt            time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at" bson:"updated_at"`
}
