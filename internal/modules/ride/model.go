// README: Ride aggregate and status state machine.
package ride

import (
	"time"

	"ecoride/internal/modules/pricing"
	"ecoride/internal/types"
)

type Status string

const (
	StatusNone          Status = "none"
	StatusSearching     Status = "searching"
	StatusMatched       Status = "matched"
	StatusDriverEnRoute Status = "driver_en_route"
	StatusArrived       Status = "arrived"
	StatusInProgress    Status = "in_progress"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether the driver is moving toward a leg endpoint, i.e.
// the statuses in which the position simulator ticks.
func (s Status) Active() bool {
	return s == StatusDriverEnRoute || s == StatusInProgress
}

type Ride struct {
	ID             types.ID             `json:"id"`
	UserID         types.ID             `json:"user_id"`
	DriverID       *types.ID            `json:"driver_id,omitempty"`
	Status         Status               `json:"status"`
	StatusVersion  int                  `json:"-"`
	Pickup         types.Point          `json:"pickup"`
	Dropoff        types.Point          `json:"dropoff"`
	PickupAddress  string               `json:"pickup_address,omitempty"`
	DropoffAddress string               `json:"dropoff_address,omitempty"`
	VehicleClass   pricing.VehicleClass `json:"vehicle_class"`

	// Fare fields are locked at booking time and never recomputed.
	Price           float64 `json:"price"`
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
	CarbonGrams     int     `json:"carbon_grams"`

	CreatedAt    time.Time  `json:"created_at"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	MatchedAt    *time.Time `json:"matched_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

// Event records one status transition for the audit trail and the
// notification fan-out.
type Event struct {
	ID         int64
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	CreatedAt  time.Time
}

// AllowedTransitions represents the ride state flow (diagram) as code.
// Cancellation is reachable from every non-terminal state; everything else
// moves strictly forward.
var AllowedTransitions = map[Status][]Status{
	StatusSearching:     {StatusMatched, StatusCancelled},
	StatusMatched:       {StatusDriverEnRoute, StatusCancelled},
	StatusDriverEnRoute: {StatusArrived, StatusCancelled},
	StatusArrived:       {StatusInProgress, StatusCancelled},
	StatusInProgress:    {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
