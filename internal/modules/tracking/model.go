// README: Position simulation model: legs, interpolation ticks and ETA text.
package tracking

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ecoride/internal/geo"
	"ecoride/internal/modules/ride"
	"ecoride/internal/types"
)

// ErrNotActive is returned when a tick is requested for a ride that is not in
// a driver-moving status.
var ErrNotActive = errors.New("ride is not in an active status")

// driverSpawnOffsetDeg places the synthetic driver start point a fixed offset
// from the pickup (about 1.2 km planar). There is no real GPS feed; the
// pickup-bound leg runs from this spawn point to the pickup.
const driverSpawnOffsetDeg = 0.008

// etaSpeedFactor converts remaining km to minutes at a 30 km/h average.
const etaSpeedFactor = 2.0

// Update is one simulator emission: the interpolated driver position and the
// human-readable ETA for the current leg. It is ephemeral and never written
// back onto the ride.
type Update struct {
	RideID     types.ID    `json:"ride_id"`
	Status     ride.Status `json:"status"`
	Position   types.Point `json:"position"`
	ETAText    string      `json:"eta_text"`
	Progress   float64     `json:"progress"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// Leg returns the endpoints the driver is moving between: spawn → pickup
// while en route to the rider, pickup → dropoff while the trip runs.
func Leg(r *ride.Ride) (from, to types.Point, ok bool) {
	switch r.Status {
	case ride.StatusDriverEnRoute:
		spawn := types.Point{
			Lat: r.Pickup.Lat + driverSpawnOffsetDeg,
			Lng: r.Pickup.Lng + driverSpawnOffsetDeg,
		}
		return spawn, r.Pickup, true
	case ride.StatusInProgress:
		return r.Pickup, r.Dropoff, true
	}
	return types.Point{}, types.Point{}, false
}

// Tick computes the simulator emission for a ride at the given progress
// fraction. Progress is clamped to [0, 1], so the emitted position always
// stays inside the bounding box of the current leg's endpoints.
func Tick(r *ride.Ride, progress float64) (Update, error) {
	from, to, ok := Leg(r)
	if !ok {
		return Update{}, ErrNotActive
	}
	pos := geo.Lerp(from, to, progress)
	remainingKm, err := geo.DistanceKm(pos, to)
	if err != nil {
		return Update{}, err
	}
	return Update{
		RideID:     r.ID,
		Status:     r.Status,
		Position:   pos,
		ETAText:    fmt.Sprintf("%d min", int(math.Round(remainingKm*etaSpeedFactor))),
		Progress:   math.Min(math.Max(progress, 0), 1),
		RecordedAt: time.Now(),
	}, nil
}
