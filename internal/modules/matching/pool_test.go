// README: Memory pool tests (nearest ranking, empty pool, invalid input).
package matching

import (
	"context"
	"errors"
	"math"
	"testing"

	"ecoride/internal/geo"
	"ecoride/internal/types"
)

func TestMemoryPool_NearestPicksClosest(t *testing.T) {
	pool := NewMemoryPool()
	ctx := context.Background()

	drivers := map[types.ID]types.Point{
		"d_far":    {Lat: 48.90, Lng: 2.40},
		"d_near":   {Lat: 48.857, Lng: 2.353},
		"d_medium": {Lat: 48.87, Lng: 2.36},
	}
	for id, pos := range drivers {
		if err := pool.Upsert(ctx, id, pos); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	got, err := pool.Nearest(ctx, types.Point{Lat: 48.8566, Lng: 2.3522})
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if got != "d_near" {
		t.Fatalf("nearest = %s, want d_near", got)
	}
}

func TestMemoryPool_EmptyPool(t *testing.T) {
	pool := NewMemoryPool()
	_, err := pool.Nearest(context.Background(), types.Point{Lat: 48.8566, Lng: 2.3522})
	if !errors.Is(err, ErrNoDrivers) {
		t.Fatalf("expected ErrNoDrivers, got %v", err)
	}
}

func TestMemoryPool_RemoveDrainsPool(t *testing.T) {
	pool := NewMemoryPool()
	ctx := context.Background()

	if err := pool.Upsert(ctx, "d1", types.Point{Lat: 48.86, Lng: 2.35}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := pool.Remove(ctx, "d1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := pool.Nearest(ctx, types.Point{Lat: 48.86, Lng: 2.35}); !errors.Is(err, ErrNoDrivers) {
		t.Fatalf("expected ErrNoDrivers after remove, got %v", err)
	}
}

func TestMemoryPool_RejectsInvalidPositions(t *testing.T) {
	pool := NewMemoryPool()
	ctx := context.Background()

	err := pool.Upsert(ctx, "d1", types.Point{Lat: math.NaN(), Lng: 2.35})
	if !errors.Is(err, geo.ErrInvalidLocation) {
		t.Fatalf("upsert: expected ErrInvalidLocation, got %v", err)
	}
	_, err = pool.Nearest(ctx, types.Point{Lat: math.Inf(1), Lng: 2.35})
	if !errors.Is(err, geo.ErrInvalidLocation) {
		t.Fatalf("nearest: expected ErrInvalidLocation, got %v", err)
	}
}
