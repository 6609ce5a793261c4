// README: Vehicle classes and the per-class rate table.
package pricing

type VehicleClass string

const (
	ClassEconomy  VehicleClass = "economy"
	ClassStandard VehicleClass = "standard"
	ClassPremium  VehicleClass = "premium"
	ClassElectric VehicleClass = "electric"
	ClassHybrid   VehicleClass = "hybrid"
	ClassShared   VehicleClass = "shared"

	// ClassAirport is a flat-rate product label. It has no row of its own in
	// the rate table and quotes through the standard fallback.
	ClassAirport VehicleClass = "airport"
)

// Rate is the per-km fare rate and the multiplier applied to the 120 g/km
// CO2 baseline for one vehicle class.
type Rate struct {
	PerKm          float64
	EmissionFactor float64
}

const (
	bookingFee         = 2.5
	baselineGramsPerKm = 120.0
)

var defaultRates = map[VehicleClass]Rate{
	ClassEconomy:  {PerKm: 1.2, EmissionFactor: 0.9},
	ClassStandard: {PerKm: 1.5, EmissionFactor: 1.0},
	ClassPremium:  {PerKm: 2.2, EmissionFactor: 1.5},
	ClassElectric: {PerKm: 1.8, EmissionFactor: 0.2},
	ClassHybrid:   {PerKm: 1.6, EmissionFactor: 0.6},
	ClassShared:   {PerKm: 0.9, EmissionFactor: 0.5},
}

// Quote is a locked fare estimate. All fields derive deterministically from
// the trip endpoints and vehicle class; they are computed once at booking and
// never recomputed.
type Quote struct {
	VehicleClass    VehicleClass `json:"vehicle_class"`
	DistanceKm      float64      `json:"distance_km"`
	DurationMinutes int          `json:"duration_minutes"`
	Price           float64      `json:"price"`
	CarbonGrams     int          `json:"carbon_grams"`
}
