// README: Live tracking WebSocket handler; streams simulator updates.
package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"ecoride/internal/metrics"
	"ecoride/internal/modules/ride"
	"ecoride/internal/modules/tracking"
	"ecoride/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

type TrackHandler struct {
	rides   *ride.Service
	tracker *tracking.Service
	history *tracking.Store // optional
}

func NewTrackHandler(rides *ride.Service, tracker *tracking.Service, history *tracking.Store) *TrackHandler {
	return &TrackHandler{rides: rides, tracker: tracker, history: history}
}

// Stream upgrades to a WebSocket and forwards position updates for the ride
// until the ride ends or the client disconnects.
func (h *TrackHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing ride id")
		return
	}
	current, err := h.rides.Get(r.Context(), types.ID(id))
	if err != nil {
		writeRideError(w, err)
		return
	}
	if current.Status.Terminal() {
		writeError(w, http.StatusConflict, "ride already ended")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade wrote its own error response.
		return
	}
	defer conn.Close()

	metrics.WebSocketConnectionsGauge.Inc()
	defer metrics.WebSocketConnectionsGauge.Dec()

	updates, unsubscribe := h.tracker.Subscribe(types.ID(id))
	defer unsubscribe()

	// Reader goroutine: its only job is to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		}
	}
}

// History returns recorded snapshots for the ride, oldest first.
func (h *TrackHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing ride id")
		return
	}
	if h.history == nil {
		writeError(w, http.StatusNotFound, "tracking history not enabled")
		return
	}
	if _, err := h.rides.Get(r.Context(), types.ID(id)); err != nil {
		writeRideError(w, err)
		return
	}
	snaps, err := h.history.History(r.Context(), types.ID(id), 200)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ride_id": id, "snapshots": snaps})
}
