// README: Fare quote handler.
package handlers

import (
	"encoding/json"
	"net/http"

	"ecoride/internal/modules/pricing"
	"ecoride/internal/types"
)

type QuoteHandler struct {
	pricing *pricing.Service
}

func NewQuoteHandler(svc *pricing.Service) *QuoteHandler {
	return &QuoteHandler{pricing: svc}
}

type quoteReq struct {
	Pickup       *pointReq `json:"pickup"`
	Dropoff      *pointReq `json:"dropoff"`
	VehicleClass string    `json:"vehicle_class"`
}

// Quote returns the fare a booking with the same trip would lock, without
// creating anything.
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Pickup == nil || req.Dropoff == nil {
		writeError(w, http.StatusBadRequest, "missing pickup or dropoff")
		return
	}
	quote, err := h.pricing.Estimate(r.Context(),
		types.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng},
		types.Point{Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng},
		pricing.VehicleClass(req.VehicleClass),
	)
	if err != nil {
		writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
