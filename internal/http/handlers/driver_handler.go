// README: Driver availability handlers backed by the matching pool.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecoride/internal/geo"
	"ecoride/internal/modules/matching"
	"ecoride/internal/types"
)

type DriverHandler struct {
	pool matching.Pool
}

func NewDriverHandler(pool matching.Pool) *DriverHandler {
	return &DriverHandler{pool: pool}
}

type driverLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdateLocation registers the driver as available at the given position.
func (h *DriverHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing driver id")
		return
	}
	var req driverLocationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.pool.Upsert(r.Context(), types.ID(id), types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		if errors.Is(err, geo.ErrInvalidLocation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"driver_id": id, "available": true})
}

// GoOffline removes the driver from the matching pool.
func (h *DriverHandler) GoOffline(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing driver id")
		return
	}
	if err := h.pool.Remove(r.Context(), types.ID(id)); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"driver_id": id, "available": false})
}
