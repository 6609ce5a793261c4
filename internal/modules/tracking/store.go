// README: Position snapshot store backed by PostgreSQL history and a Redis
// GEO set holding each ride's last known driver position.
package tracking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ecoride/internal/modules/ride"
	"ecoride/internal/types"
)

const lastPositionKey = "tracking:last_position"

type Snapshot struct {
	ID         int64
	RideID     types.ID
	Status     ride.Status
	Position   types.Point
	ETAText    string
	Progress   float64
	RecordedAt time.Time
}

func snapshotOf(r *ride.Ride, u Update) Snapshot {
	return Snapshot{
		RideID:     r.ID,
		Status:     r.Status,
		Position:   u.Position,
		ETAText:    u.ETAText,
		Progress:   u.Progress,
		RecordedAt: u.RecordedAt,
	}
}

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redisClient *redis.Client) *Store {
	return &Store{db: db, redis: redisClient}
}

func (s *Store) Append(ctx context.Context, snap Snapshot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO position_snapshots (
			ride_id, status, lat, lng, eta_text, progress, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(snap.RideID),
		string(snap.Status),
		snap.Position.Lat, snap.Position.Lng,
		snap.ETAText,
		snap.Progress,
		snap.RecordedAt,
	)
	if err != nil {
		return err
	}
	if s.redis != nil {
		return s.redis.GeoAdd(ctx, lastPositionKey, &redis.GeoLocation{
			Name:      string(snap.RideID),
			Longitude: snap.Position.Lng,
			Latitude:  snap.Position.Lat,
		}).Err()
	}
	return nil
}

// History returns the recorded snapshots for a ride, oldest first.
func (s *Store) History(ctx context.Context, rideID types.ID, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, ride_id, status, lat, lng, eta_text, progress, recorded_at
		FROM position_snapshots
		WHERE ride_id = $1
		ORDER BY recorded_at ASC
		LIMIT $2`, string(rideID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(
			&snap.ID, &snap.RideID, &snap.Status,
			&snap.Position.Lat, &snap.Position.Lng,
			&snap.ETAText, &snap.Progress, &snap.RecordedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
