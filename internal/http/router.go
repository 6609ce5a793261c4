// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecoride/internal/http/handlers"
	"ecoride/internal/http/middleware"
	"ecoride/internal/modules/matching"
	"ecoride/internal/modules/pricing"
	"ecoride/internal/modules/ride"
	"ecoride/internal/modules/tracking"
)

type RouterDeps struct {
	Rides    *ride.Service
	Pricing  *pricing.Service
	Drivers  matching.Pool
	Tracker  *tracking.Service
	History  *tracking.Store   // optional
	Geocoder handlers.Geocoder // optional
	Logger   *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	mux := http.NewServeMux()

	rideHandler := handlers.NewRideHandler(deps.Rides, deps.Geocoder)
	mux.HandleFunc("POST /api/rides", rideHandler.Book)
	mux.HandleFunc("GET /api/rides/{id}", rideHandler.Get)
	mux.HandleFunc("POST /api/rides/{id}/cancel", rideHandler.Cancel)
	mux.HandleFunc("POST /api/rides/{id}/advance", rideHandler.Advance)

	quoteHandler := handlers.NewQuoteHandler(deps.Pricing)
	mux.HandleFunc("POST /api/quotes", quoteHandler.Quote)

	driverHandler := handlers.NewDriverHandler(deps.Drivers)
	mux.HandleFunc("PUT /api/drivers/{id}/location", driverHandler.UpdateLocation)
	mux.HandleFunc("DELETE /api/drivers/{id}/location", driverHandler.GoOffline)

	trackHandler := handlers.NewTrackHandler(deps.Rides, deps.Tracker, deps.History)
	mux.HandleFunc("GET /api/rides/{id}/track", trackHandler.Stream)
	mux.HandleFunc("GET /api/rides/{id}/track/history", trackHandler.History)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	handler = middleware.Metrics()(handler)
	handler = middleware.Logging(deps.Logger)(handler)
	handler = middleware.Recovery(deps.Logger)(handler)
	return handler
}
