// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecoride/internal/geo"
	"ecoride/internal/modules/ride"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeRideError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ride.ErrBadRequest), errors.Is(err, geo.ErrInvalidLocation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrInvalidTransition), errors.Is(err, ride.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
