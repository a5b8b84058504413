package delhivery

import (
	"math"
	"strings"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// Fallback tariff, INR. Used only when the charges API gives nothing usable.
const (
	weightSlabGrams = 500.0
	codSurcharge    = 45.0
	currencyINR     = "INR"
)

type tariff struct {
	base      float64 // first slab
	increment float64 // each further slab
}

var fallbackTariffs = map[domain.ShippingMode]tariff{
	domain.ModeSurface: {base: 50, increment: 40},
	domain.ModeExpress: {base: 90, increment: 70},
}

// FallbackCost prices a parcel from the static tariff. It is non-decreasing in
// weight, Express is always dearer than Surface, and COD always adds the
// surcharge.
func FallbackCost(mode domain.ShippingMode, weightGrams float64, payment domain.PaymentMode) domain.CostBreakdown {
	t, ok := fallbackTariffs[mode]
	if !ok {
		t = fallbackTariffs[domain.ModeSurface]
	}

	slabs := math.Ceil(weightGrams / weightSlabGrams)
	if slabs < 1 {
		slabs = 1
	}
	base := t.base + (slabs-1)*t.increment

	var cod float64
	if payment == domain.PaymentCOD {
		cod = codSurcharge
	}

	return domain.CostBreakdown{
		BaseCharge: base,
		CODCharge:  cod,
		Total:      base + cod,
		Currency:   currencyINR,
		Source:     domain.CostSourceEstimated,
	}
}

// Zone is a coarse geographic region used by the TAT fallback.
type Zone string

const (
	ZoneNorth   Zone = "north"
	ZoneSouth   Zone = "south"
	ZoneEast    Zone = "east"
	ZoneWest    Zone = "west"
	ZoneCentral Zone = "central"
)

var stateZones = map[string]Zone{
	"DL": ZoneNorth, "HR": ZoneNorth, "PB": ZoneNorth, "HP": ZoneNorth, "JK": ZoneNorth,
	"LA": ZoneNorth, "UP": ZoneNorth, "UK": ZoneNorth, "UT": ZoneNorth, "CH": ZoneNorth, "RJ": ZoneNorth,
	"KA": ZoneSouth, "TN": ZoneSouth, "KL": ZoneSouth, "AP": ZoneSouth, "TS": ZoneSouth, "TG": ZoneSouth,
	"PY": ZoneSouth, "LD": ZoneSouth,
	"WB": ZoneEast, "OR": ZoneEast, "OD": ZoneEast, "BR": ZoneEast, "JH": ZoneEast, "AS": ZoneEast,
	"SK": ZoneEast, "AR": ZoneEast, "MN": ZoneEast, "ML": ZoneEast, "MZ": ZoneEast, "NL": ZoneEast,
	"TR": ZoneEast, "AN": ZoneEast,
	"MH": ZoneWest, "GJ": ZoneWest, "GA": ZoneWest, "DD": ZoneWest, "DN": ZoneWest,
	"MP": ZoneCentral, "CG": ZoneCentral, "CT": ZoneCentral,
}

var stateNames = map[string]string{
	"delhi": "DL", "new delhi": "DL", "haryana": "HR", "punjab": "PB", "himachal pradesh": "HP",
	"jammu and kashmir": "JK", "ladakh": "LA", "uttar pradesh": "UP", "uttarakhand": "UK",
	"chandigarh": "CH", "rajasthan": "RJ",
	"karnataka": "KA", "tamil nadu": "TN", "kerala": "KL", "andhra pradesh": "AP", "telangana": "TS",
	"puducherry": "PY", "pondicherry": "PY", "lakshadweep": "LD",
	"west bengal": "WB", "odisha": "OR", "orissa": "OR", "bihar": "BR", "jharkhand": "JH", "assam": "AS",
	"sikkim": "SK", "arunachal pradesh": "AR", "manipur": "MN", "meghalaya": "ML", "mizoram": "MZ",
	"nagaland": "NL", "tripura": "TR", "andaman and nicobar islands": "AN",
	"maharashtra": "MH", "gujarat": "GJ", "goa": "GA", "daman and diu": "DD",
	"dadra and nagar haveli": "DN", "dadra and nagar haveli and daman and diu": "DN",
	"madhya pradesh": "MP", "chhattisgarh": "CG",
}

var adjacentZones = map[Zone][]Zone{
	ZoneNorth:   {ZoneCentral, ZoneWest, ZoneEast},
	ZoneSouth:   {ZoneWest, ZoneCentral},
	ZoneEast:    {ZoneCentral, ZoneNorth},
	ZoneWest:    {ZoneNorth, ZoneSouth, ZoneCentral},
	ZoneCentral: {ZoneNorth, ZoneSouth, ZoneEast, ZoneWest},
}

var metroCities = map[string]bool{
	"delhi": true, "new delhi": true, "mumbai": true, "bengaluru": true, "bangalore": true,
	"chennai": true, "kolkata": true, "hyderabad": true, "pune": true, "ahmedabad": true,
}

var tier2Cities = map[string]bool{
	"jaipur": true, "lucknow": true, "chandigarh": true, "kochi": true, "indore": true,
	"bhopal": true, "nagpur": true, "surat": true, "coimbatore": true, "visakhapatnam": true,
	"patna": true, "bhubaneswar": true, "guwahati": true, "vadodara": true, "mysuru": true,
	"mysore": true, "noida": true, "gurugram": true, "gurgaon": true, "thiruvananthapuram": true,
	"nashik": true, "ludhiana": true, "kanpur": true, "madurai": true, "dehradun": true,
}

// Proximity is the distance class between origin and destination.
type Proximity string

const (
	SameState    Proximity = "same_state"
	SameZone     Proximity = "same_zone"
	AdjacentZone Proximity = "adjacent_zone"
	OtherZone    Proximity = "other_zone"
)

type cityTier int

const (
	tierMetro cityTier = iota
	tierTwo
	tierOther
)

// transitDays[mode][proximity][tier]. Coarse on purpose: directionally right
// when the live API is down, nothing more.
var transitDays = map[domain.ShippingMode]map[Proximity][3]int{
	domain.ModeSurface: {
		SameState:    {2, 3, 4},
		SameZone:     {3, 4, 5},
		AdjacentZone: {4, 5, 6},
		OtherZone:    {5, 6, 8},
	},
	domain.ModeExpress: {
		SameState:    {1, 2, 3},
		SameZone:     {2, 2, 3},
		AdjacentZone: {2, 3, 4},
		OtherZone:    {3, 4, 5},
	},
}

// StateCode resolves a state code or name to its two-letter code.
func StateCode(state string) string {
	s := strings.TrimSpace(state)
	if s == "" {
		return ""
	}
	if _, ok := stateZones[strings.ToUpper(s)]; ok {
		return strings.ToUpper(s)
	}
	return stateNames[strings.Join(strings.Fields(strings.ToLower(s)), " ")]
}

// ZoneOf returns the zone for a state code or name.
func ZoneOf(state string) (Zone, bool) {
	z, ok := stateZones[StateCode(state)]
	return z, ok
}

// ProximityOf classifies an origin/destination state pair. Unknown states are
// treated as OtherZone.
func ProximityOf(originState, destState string) Proximity {
	oc, dc := StateCode(originState), StateCode(destState)
	if oc == "" || dc == "" {
		return OtherZone
	}
	if oc == dc {
		return SameState
	}
	oz, dz := stateZones[oc], stateZones[dc]
	if oz == dz {
		return SameZone
	}
	for _, z := range adjacentZones[oz] {
		if z == dz {
			return AdjacentZone
		}
	}
	return OtherZone
}

func tierOf(city string) cityTier {
	c := strings.ToLower(strings.TrimSpace(city))
	switch {
	case metroCities[c]:
		return tierMetro
	case tier2Cities[c]:
		return tierTwo
	}
	return tierOther
}

// FallbackTransitDays estimates delivery days from the static zone table.
func FallbackTransitDays(mode domain.ShippingMode, originState, destState, destCity string) int {
	table, ok := transitDays[mode]
	if !ok {
		table = transitDays[domain.ModeSurface]
	}
	return table[ProximityOf(originState, destState)][tierOf(destCity)]
}
