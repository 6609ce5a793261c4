// README: Ride notifiers: fan-out, structured log sink, metrics sink and the
// bridge that drives the position simulator off lifecycle transitions.
package notify

import (
	"context"
	"log/slog"

	"ecoride/internal/metrics"
	"ecoride/internal/modules/ride"
	"ecoride/internal/modules/tracking"
)

// Fanout delivers every notification to each wrapped notifier in order.
type Fanout []ride.Notifier

func (f Fanout) RideCreated(ctx context.Context, r *ride.Ride) {
	for _, n := range f {
		n.RideCreated(ctx, r)
	}
}

func (f Fanout) StatusChanged(ctx context.Context, r *ride.Ride, from ride.Status) {
	for _, n := range f {
		n.StatusChanged(ctx, r, from)
	}
}

// LogNotifier writes lifecycle events to the structured log.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Log != nil {
		return n.Log
	}
	return slog.Default()
}

func (n LogNotifier) RideCreated(ctx context.Context, r *ride.Ride) {
	n.logger().Info("ride created",
		"ride_id", r.ID,
		"user_id", r.UserID,
		"vehicle_class", r.VehicleClass,
		"price", r.Price,
		"distance_km", r.DistanceKm,
	)
}

func (n LogNotifier) StatusChanged(ctx context.Context, r *ride.Ride, from ride.Status) {
	n.logger().Info("ride status changed",
		"ride_id", r.ID,
		"from", from,
		"to", r.Status,
	)
}

// MetricsNotifier feeds booking and transition counters, and keeps the active
// rides gauge in step with terminal transitions.
type MetricsNotifier struct{}

func (MetricsNotifier) RideCreated(ctx context.Context, r *ride.Ride) {
	metrics.RidesBookedTotal.WithLabelValues(string(r.VehicleClass)).Inc()
	metrics.ActiveRidesGauge.Inc()
}

func (MetricsNotifier) StatusChanged(ctx context.Context, r *ride.Ride, from ride.Status) {
	metrics.RideTransitionsTotal.WithLabelValues(string(from), string(r.Status)).Inc()
	if r.Status.Terminal() {
		metrics.ActiveRidesGauge.Dec()
	}
}

// TrackingNotifier starts a position simulation when the driver starts moving
// and stops it once the ride leaves an active status.
type TrackingNotifier struct {
	Tracker *tracking.Service
}

func (n TrackingNotifier) RideCreated(ctx context.Context, r *ride.Ride) {}

func (n TrackingNotifier) StatusChanged(ctx context.Context, r *ride.Ride, from ride.Status) {
	switch {
	case r.Status.Active():
		// Each active status is its own leg; Start replaces the old loop.
		n.Tracker.Start(r.ID)
	case from.Active():
		n.Tracker.Stop(r.ID)
	}
}
