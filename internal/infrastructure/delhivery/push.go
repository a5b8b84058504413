package delhivery

import (
	"strings"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// PushPayload is the body of a Delhivery scan push. Each push carries the
// latest scan of one waybill.
type PushPayload struct {
	Shipment PushedShipment `json:"Shipment"`
}

// PushedShipment is the waybill block of a scan push.
type PushedShipment struct {
	AWB         string       `json:"AWB"`
	ReferenceNo string       `json:"ReferenceNo"`
	Status      StatusDetail `json:"Status"`
	PickUpDate  string       `json:"PickUpDate"`
	NSLCode     string       `json:"NSLCode"`
}

// TrackingUpdate normalizes the push into the same shape polling produces.
// The single scan becomes a one-entry history that the caller appends.
func (p PushPayload) TrackingUpdate() domain.TrackingUpdate {
	st := p.Shipment.Status
	u := domain.TrackingUpdate{
		AWB:             strings.TrimSpace(p.Shipment.AWB),
		Status:          ParseCourierStatus(st.Status, st.StatusType).Internal(),
		CourierStatus:   st.Status,
		CurrentLocation: st.StatusLocation,
	}

	ts, _ := parseCourierTime(st.StatusDateTime)
	if st.Status != "" {
		u.History = []domain.TrackingScan{{
			Status:    st.Status,
			Timestamp: ts,
			Location:  st.StatusLocation,
			Remarks:   st.Instructions,
		}}
	}
	if t, ok := parseCourierTime(p.Shipment.PickUpDate); ok {
		u.PickupActualDate = &t
	}
	return u
}
