// README: Ride store interface and the PostgreSQL implementation.
package ride

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ecoride/internal/types"
)

// Store is the persistence collaborator for rides. UpdateStatus is a
// compare-and-swap on (status, status_version); it returns false when the
// ride moved under the caller, which serializes concurrent cancel/advance
// calls on the same ride id.
type Store interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (
			id, user_id, driver_id, status, status_version,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			pickup_address, dropoff_address, vehicle_class,
			price, distance_km, duration_minutes, carbon_grams,
			created_at, scheduled_for
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16,
			$17, $18
		)`,
		string(r.ID),
		string(r.UserID),
		toStringPtr(r.DriverID),
		string(r.Status),
		r.StatusVersion,
		r.Pickup.Lat, r.Pickup.Lng,
		r.Dropoff.Lat, r.Dropoff.Lng,
		r.PickupAddress, r.DropoffAddress,
		string(r.VehicleClass),
		r.Price, r.DistanceKm, r.DurationMinutes, r.CarbonGrams,
		r.CreatedAt,
		r.ScheduledFor,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, driver_id, status, status_version,
		       pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
		       pickup_address, dropoff_address, vehicle_class,
		       price, distance_km, duration_minutes, carbon_grams,
		       created_at, scheduled_for, matched_at, completed_at, cancelled_at
		FROM rides
		WHERE id = $1`, string(id),
	)

	var r Ride
	var driverID sql.NullString
	var scheduledFor, matchedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.UserID, &driverID, &r.Status, &r.StatusVersion,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.Dropoff.Lat, &r.Dropoff.Lng,
		&r.PickupAddress, &r.DropoffAddress, &r.VehicleClass,
		&r.Price, &r.DistanceKm, &r.DurationMinutes, &r.CarbonGrams,
		&r.CreatedAt, &scheduledFor, &matchedAt, &completedAt, &cancelledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		d := types.ID(driverID.String)
		r.DriverID = &d
	}
	r.ScheduledFor = toTimePtr(scheduledFor)
	r.MatchedAt = toTimePtr(matchedAt)
	r.CompletedAt = toTimePtr(completedAt)
	r.CancelledAt = toTimePtr(cancelledAt)
	return &r, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET status = $1,
		    status_version = status_version + 1,
		    driver_id = COALESCE($2, driver_id),
		    matched_at = CASE WHEN $1 = 'matched' THEN NOW() ELSE matched_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		toStringPtr(driverID),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_status_events (
			ride_id, from_status, to_status, actor_type, created_at
		) VALUES ($1, $2, $3, $4, $5)`,
		string(e.RideID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		e.CreatedAt,
	)
	return err
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
