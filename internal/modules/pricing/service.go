// README: Pricing service computes fare, duration and carbon estimates.
package pricing

import (
	"context"
	"math"

	"ecoride/internal/geo"
	"ecoride/internal/types"
)

type Service struct {
	rates map[VehicleClass]Rate
}

// NewService builds a pricing service from the built-in rate table merged
// with any overrides (see Store.LoadRates).
func NewService(overrides map[VehicleClass]Rate) *Service {
	rates := make(map[VehicleClass]Rate, len(defaultRates))
	for class, r := range defaultRates {
		rates[class] = r
	}
	for class, r := range overrides {
		rates[class] = r
	}
	return &Service{rates: rates}
}

// RateFor returns the rate row for the class. Unmapped classes (including
// the airport flat-rate label) fall back to the standard row.
func (s *Service) RateFor(class VehicleClass) Rate {
	if r, ok := s.rates[class]; ok {
		return r
	}
	return s.rates[ClassStandard]
}

// Estimate computes the locked quote for a trip. It is pure and
// deterministic: identical inputs always produce an identical quote.
func (s *Service) Estimate(ctx context.Context, pickup, dropoff types.Point, class VehicleClass) (Quote, error) {
	raw, err := geo.DistanceKm(pickup, dropoff)
	if err != nil {
		return Quote{}, err
	}
	rate := s.RateFor(class)

	distanceKm := round1(raw)
	return Quote{
		VehicleClass:    class,
		DistanceKm:      distanceKm,
		DurationMinutes: int(math.Round(distanceKm*2 + 5)),
		Price:           round2(rate.PerKm*distanceKm + bookingFee),
		CarbonGrams:     int(math.Round(distanceKm * baselineGramsPerKm * rate.EmissionFactor)),
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
