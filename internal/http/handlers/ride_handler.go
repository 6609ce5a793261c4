// README: Ride handlers for booking, lookup, cancel and lifecycle advance.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ecoride/internal/modules/pricing"
	"ecoride/internal/modules/ride"
	"ecoride/internal/types"
)

// Geocoder resolves a street address when the client omits coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type RideHandler struct {
	rides    *ride.Service
	geocoder Geocoder // optional
}

func NewRideHandler(svc *ride.Service, geocoder Geocoder) *RideHandler {
	return &RideHandler{rides: svc, geocoder: geocoder}
}

type pointReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type bookRideReq struct {
	UserID         string     `json:"user_id"`
	Pickup         *pointReq  `json:"pickup"`
	Dropoff        *pointReq  `json:"dropoff"`
	PickupAddress  string     `json:"pickup_address"`
	DropoffAddress string     `json:"dropoff_address"`
	VehicleClass   string     `json:"vehicle_class"`
	ScheduledFor   *time.Time `json:"scheduled_for"`
}

func (h *RideHandler) resolvePoint(ctx context.Context, p *pointReq, address string) (types.Point, bool) {
	if p != nil {
		return types.Point{Lat: p.Lat, Lng: p.Lng}, true
	}
	if address != "" && h.geocoder != nil {
		pt, err := h.geocoder.Geocode(ctx, address)
		if err == nil {
			return pt, true
		}
	}
	return types.Point{}, false
}

func (h *RideHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRideReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	pickup, ok := h.resolvePoint(r.Context(), req.Pickup, req.PickupAddress)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing pickup location")
		return
	}
	dropoff, ok := h.resolvePoint(r.Context(), req.Dropoff, req.DropoffAddress)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing dropoff location")
		return
	}

	booked, err := h.rides.Book(r.Context(), ride.BookCommand{
		UserID:         types.ID(req.UserID),
		Pickup:         pickup,
		Dropoff:        dropoff,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		VehicleClass:   pricing.VehicleClass(req.VehicleClass),
		ScheduledFor:   req.ScheduledFor,
	})
	if err != nil {
		writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booked)
}

func (h *RideHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing ride id")
		return
	}
	got, err := h.rides.Get(r.Context(), types.ID(id))
	if err != nil {
		writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (h *RideHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing ride id")
		return
	}
	changed, err := h.rides.Cancel(r.Context(), types.ID(id))
	if err != nil {
		writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ride_id":   id,
		"status":    ride.StatusCancelled,
		"cancelled": changed,
	})
}

type advanceRideReq struct {
	Target    string `json:"target"`
	DriverID  string `json:"driver_id"`
	ActorType string `json:"actor_type"`
}

func (h *RideHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing ride id")
		return
	}
	var req advanceRideReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Target == "" {
		writeError(w, http.StatusBadRequest, "missing target status")
		return
	}
	cmd := ride.AdvanceCommand{
		RideID:    types.ID(id),
		Target:    ride.Status(req.Target),
		ActorType: req.ActorType,
	}
	if req.DriverID != "" {
		d := types.ID(req.DriverID)
		cmd.DriverID = &d
	}
	advanced, err := h.rides.Advance(r.Context(), cmd)
	if err != nil {
		writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, advanced)
}
