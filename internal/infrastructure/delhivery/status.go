package delhivery

import (
	"strings"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// StatusMappingVersion identifies the revision of the courier status table
// below. Bump it whenever an alias or mapping changes.
const StatusMappingVersion = "2024.2"

// CourierStatus is the courier's shipment status vocabulary.
type CourierStatus string

const (
	CourierManifested   CourierStatus = "Manifested"
	CourierNotPicked    CourierStatus = "Not Picked"
	CourierScheduled    CourierStatus = "Scheduled"
	CourierPickedUp     CourierStatus = "Picked Up"
	CourierInTransit    CourierStatus = "In Transit"
	CourierPending      CourierStatus = "Pending"
	CourierDispatched   CourierStatus = "Dispatched"
	CourierDelivered    CourierStatus = "Delivered"
	CourierRTOInTransit CourierStatus = "RTO In Transit"
	CourierRTODelivered CourierStatus = "RTO Delivered"
	CourierLost         CourierStatus = "LOST"
	CourierClosed       CourierStatus = "Closed"
	CourierCancelled    CourierStatus = "Cancelled"
	CourierUnknown      CourierStatus = "Unknown"
)

type statusEntry struct {
	internal domain.ShipmentStatus
	editable bool
	terminal bool
}

var statusTable = map[CourierStatus]statusEntry{
	CourierManifested:   {internal: domain.StatusPlaced, editable: true},
	CourierNotPicked:    {internal: domain.StatusPendingPickup},
	CourierScheduled:    {internal: domain.StatusPendingPickup, editable: true},
	CourierPickedUp:     {internal: domain.StatusPickedUp},
	CourierInTransit:    {internal: domain.StatusInTransit, editable: true},
	CourierPending:      {internal: domain.StatusInTransit, editable: true},
	CourierDispatched:   {internal: domain.StatusOutForDelivery},
	CourierDelivered:    {internal: domain.StatusDelivered, terminal: true},
	CourierRTOInTransit: {internal: domain.StatusRTOInitiated, terminal: true},
	CourierRTODelivered: {internal: domain.StatusRTODelivered, terminal: true},
	CourierLost:         {internal: domain.StatusFailed, terminal: true},
	CourierClosed:       {internal: domain.StatusCancelled, terminal: true},
	CourierCancelled:    {internal: domain.StatusCancelled, terminal: true},
}

// statusAliases maps normalised courier spellings to a CourierStatus.
var statusAliases = map[string]CourierStatus{
	"manifested":          CourierManifested,
	"shipment manifested": CourierManifested,
	"not picked":          CourierNotPicked,
	"open":                CourierNotPicked,
	"scheduled":           CourierScheduled,
	"pickup scheduled":    CourierScheduled,
	"picked up":           CourierPickedUp,
	"picked":              CourierPickedUp,
	"in transit":          CourierInTransit,
	"intransit":           CourierInTransit,
	"undelivered":         CourierInTransit,
	"pending":             CourierPending,
	"dispatched":          CourierDispatched,
	"out for delivery":    CourierDispatched,
	"delivered":           CourierDelivered,
	"rto":                 CourierRTOInTransit,
	"rto in transit":      CourierRTOInTransit,
	"rto initiated":       CourierRTOInTransit,
	"rto delivered":       CourierRTODelivered,
	"returned":            CourierRTODelivered,
	"lost":                CourierLost,
	"closed":              CourierClosed,
	"cancelled":           CourierCancelled,
	"canceled":            CourierCancelled,
}

// ParseCourierStatus classifies a courier status string. statusType is the
// courier's status category (UD forward, RT return, DL delivered, PU pickup,
// CN cancelled); it disambiguates return-leg scans that reuse forward names.
func ParseCourierStatus(status, statusType string) CourierStatus {
	key := normaliseStatus(status)
	st := strings.ToUpper(strings.TrimSpace(statusType))

	cs, ok := statusAliases[key]
	switch {
	case key == "rto" && st == "DL":
		return CourierRTODelivered
	case st == "RT" && ok && !cs.IsTerminal():
		return CourierRTOInTransit
	case st == "RT" && cs == CourierDelivered:
		return CourierRTODelivered
	case !ok && st == "CN":
		return CourierCancelled
	case !ok:
		return CourierUnknown
	}
	return cs
}

func normaliseStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Internal returns the shipment status implied by cs. Unknown maps to the
// empty status, meaning "keep the current one".
func (cs CourierStatus) Internal() domain.ShipmentStatus {
	return statusTable[cs].internal
}

// IsKnown reports whether cs is part of the mapping table.
func (cs CourierStatus) IsKnown() bool {
	_, ok := statusTable[cs]
	return ok
}

// IsEditable reports whether the courier accepts edits in cs.
func (cs CourierStatus) IsEditable() bool {
	return statusTable[cs].editable
}

// IsTerminal reports whether the courier considers the shipment finished.
func (cs CourierStatus) IsTerminal() bool {
	return statusTable[cs].terminal
}
