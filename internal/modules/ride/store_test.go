// README: Postgres store tests; skipped unless a test DSN is configured.
package ride

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ecoride/internal/modules/pricing"
	"ecoride/internal/types"
)

func newDBStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("ECORIDE_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("ECORIDE_TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewPostgresStore(pool)
}

func newDBRide() *Ride {
	return &Ride{
		ID:              newID(),
		UserID:          "u_store_test",
		Status:          StatusSearching,
		Pickup:          types.Point{Lat: 48.8566, Lng: 2.3522},
		Dropoff:         types.Point{Lat: 48.8666, Lng: 2.3522},
		VehicleClass:    pricing.ClassStandard,
		Price:           4.15,
		DistanceKm:      1.1,
		DurationMinutes: 7,
		CarbonGrams:     132,
		CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPostgresStore_CreateGetRoundtrip(t *testing.T) {
	store := newDBStore(t)
	ctx := context.Background()

	r := newDBRide()
	if err := store.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusSearching || got.StatusVersion != 0 {
		t.Errorf("status = %s v%d, want searching v0", got.Status, got.StatusVersion)
	}
	if got.Price != r.Price || got.DistanceKm != r.DistanceKm || got.CarbonGrams != r.CarbonGrams {
		t.Errorf("fare fields changed in roundtrip: %+v vs %+v", got, r)
	}
	if got.DriverID != nil || got.MatchedAt != nil || got.CancelledAt != nil {
		t.Errorf("fresh ride has populated transition fields: %+v", got)
	}
}

func TestPostgresStore_GetMissing(t *testing.T) {
	store := newDBStore(t)
	if _, err := store.Get(context.Background(), newID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_UpdateStatusCAS(t *testing.T) {
	store := newDBStore(t)
	ctx := context.Background()

	r := newDBRide()
	if err := store.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	driver := types.ID("d_store_test")
	ok, err := store.UpdateStatus(ctx, r.ID, StatusSearching, StatusMatched, 0, &driver)
	if err != nil {
		t.Fatalf("cas: %v", err)
	}
	if !ok {
		t.Fatal("expected the first CAS to apply")
	}

	// Stale version must not apply.
	ok, err = store.UpdateStatus(ctx, r.ID, StatusSearching, StatusCancelled, 0, nil)
	if err != nil {
		t.Fatalf("stale cas: %v", err)
	}
	if ok {
		t.Fatal("stale CAS must not apply")
	}

	got, err := store.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusMatched || got.StatusVersion != 1 {
		t.Errorf("status = %s v%d, want matched v1", got.Status, got.StatusVersion)
	}
	if got.DriverID == nil || *got.DriverID != driver {
		t.Errorf("driver_id = %v, want %s", got.DriverID, driver)
	}
	if got.MatchedAt == nil {
		t.Error("matched_at not stamped by the transition")
	}
}

func TestPostgresStore_AppendEvent(t *testing.T) {
	store := newDBStore(t)
	ctx := context.Background()

	r := newDBRide()
	if err := store.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.AppendEvent(ctx, &Event{
		RideID:     r.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusSearching,
		ActorType:  "passenger",
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
}
