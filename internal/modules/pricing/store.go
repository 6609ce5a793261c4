// README: Pricing rate overrides backed by PostgreSQL.
package pricing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadRates returns the per-class rate rows present in the database. Classes
// without a row keep the built-in defaults; an empty table is not an error.
func (s *Store) LoadRates(ctx context.Context) (map[VehicleClass]Rate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT vehicle_class, per_km, emission_factor
		FROM pricing_rates`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := make(map[VehicleClass]Rate)
	for rows.Next() {
		var class string
		var r Rate
		if err := rows.Scan(&class, &r.PerKm, &r.EmissionFactor); err != nil {
			return nil, err
		}
		rates[VehicleClass(class)] = r
	}
	return rates, rows.Err()
}
