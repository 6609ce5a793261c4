// Package geo contains the pure coordinate helpers shared by pricing and tracking.
package geo

import (
	"errors"
	"math"

	"ecoride/internal/types"
)

// kmPerDegree scales a degree-space distance to kilometres at the equator.
// The fare table is calibrated against this planar approximation, so pricing
// and tracking must both use it; a great-circle distance here would make the
// displayed distance disagree with the locked fare.
const kmPerDegree = 111.0

var ErrInvalidLocation = errors.New("invalid location")

// Validate rejects points with non-finite or out-of-range coordinates.
func Validate(p types.Point) error {
	if !isFinite(p.Lat) || !isFinite(p.Lng) {
		return ErrInvalidLocation
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidLocation
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DistanceKm returns the planar distance between a and b: Euclidean distance
// in degrees scaled by 111 km per degree.
func DistanceKm(a, b types.Point) (float64, error) {
	if err := Validate(a); err != nil {
		return 0, err
	}
	if err := Validate(b); err != nil {
		return 0, err
	}
	dLat := b.Lat - a.Lat
	dLng := b.Lng - a.Lng
	return math.Sqrt(dLat*dLat+dLng*dLng) * kmPerDegree, nil
}

// Lerp returns the point at fraction t along the segment from a to b.
// t is clamped to [0, 1], so the result never leaves the segment.
func Lerp(a, b types.Point, t float64) types.Point {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return types.Point{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

// InBounds reports whether p lies within the closed bounding box spanned by a and b.
func InBounds(p, a, b types.Point) bool {
	return within(p.Lat, a.Lat, b.Lat) && within(p.Lng, a.Lng, b.Lng)
}

func within(v, lo, hi float64) bool {
	if lo > hi {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

// SortByDistance performs an insertion sort (fine for small N) on any slice
// where each element exposes a distance via the accessor function.
func SortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && dist(items[j]) > dist(key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
