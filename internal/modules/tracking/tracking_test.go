// README: Simulator tests (bounded interpolation, monotonic progress, loop shutdown).
package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecoride/internal/geo"
	"ecoride/internal/modules/ride"
	"ecoride/internal/types"
)

var (
	testPickup  = types.Point{Lat: 48.8566, Lng: 2.3522}
	testDropoff = types.Point{Lat: 48.8666, Lng: 2.3622}
)

func activeRide(status ride.Status) *ride.Ride {
	return &ride.Ride{
		ID:      "r1",
		Status:  status,
		Pickup:  testPickup,
		Dropoff: testDropoff,
	}
}

func TestTick_BoundedInterpolation(t *testing.T) {
	for _, status := range []ride.Status{ride.StatusDriverEnRoute, ride.StatusInProgress} {
		t.Run(string(status), func(t *testing.T) {
			r := activeRide(status)
			from, to, ok := Leg(r)
			if !ok {
				t.Fatalf("expected an active leg for %s", status)
			}
			// Including out-of-range fractions: clamping keeps the position
			// inside the leg's bounding box.
			for _, p := range []float64{-0.5, 0, 0.1, 0.33, 0.5, 0.99, 1, 1.5} {
				u, err := Tick(r, p)
				if err != nil {
					t.Fatalf("tick(%v): %v", p, err)
				}
				if !geo.InBounds(u.Position, from, to) {
					t.Fatalf("tick(%v) emitted %+v outside leg %+v → %+v", p, u.Position, from, to)
				}
			}
		})
	}
}

func TestTick_LegEndpoints(t *testing.T) {
	r := activeRide(ride.StatusInProgress)

	start, err := Tick(r, 0)
	if err != nil {
		t.Fatalf("tick(0): %v", err)
	}
	if start.Position != r.Pickup {
		t.Errorf("trip leg starts at %+v, want pickup %+v", start.Position, r.Pickup)
	}

	end, err := Tick(r, 1)
	if err != nil {
		t.Fatalf("tick(1): %v", err)
	}
	if end.Position != r.Dropoff {
		t.Errorf("trip leg ends at %+v, want dropoff %+v", end.Position, r.Dropoff)
	}
	if end.ETAText != "0 min" {
		t.Errorf("eta at destination = %q, want \"0 min\"", end.ETAText)
	}
}

func TestTick_ETAText(t *testing.T) {
	// Pickup → dropoff is 0.01°/0.01° diagonal ≈ 1.57 km planar.
	r := activeRide(ride.StatusInProgress)
	u, err := Tick(r, 0)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	// round(1.5697 * 2) = 3
	if u.ETAText != "3 min" {
		t.Errorf("eta = %q, want \"3 min\"", u.ETAText)
	}
}

func TestTick_InactiveStatuses(t *testing.T) {
	for _, status := range []ride.Status{
		ride.StatusSearching, ride.StatusMatched, ride.StatusArrived,
		ride.StatusCompleted, ride.StatusCancelled,
	} {
		if _, err := Tick(activeRide(status), 0.5); !errors.Is(err, ErrNotActive) {
			t.Errorf("status %s: expected ErrNotActive, got %v", status, err)
		}
	}
}

func TestService_MonotonicProgress(t *testing.T) {
	store := ride.NewMemoryStore()
	r := activeRide(ride.StatusDriverEnRoute)
	if err := store.Create(context.Background(), r); err != nil {
		t.Fatalf("create ride: %v", err)
	}

	svc := NewService(store, Options{Interval: 5 * time.Millisecond, Step: 0.2})
	updates, unsubscribe := svc.Subscribe(r.ID)
	defer unsubscribe()

	svc.Start(r.ID)
	defer svc.Stop(r.ID)

	from, to, _ := Leg(r)
	var got []Update
	timeout := time.After(time.Second)
	for len(got) < 6 {
		select {
		case u := <-updates:
			got = append(got, u)
		case <-timeout:
			t.Fatalf("only received %d updates before timeout", len(got))
		}
	}

	for i, u := range got {
		if !geo.InBounds(u.Position, from, to) {
			t.Errorf("update %d position %+v outside leg", i, u.Position)
		}
		if i > 0 && u.Progress < got[i-1].Progress {
			t.Errorf("progress moved backwards: %v after %v", u.Progress, got[i-1].Progress)
		}
	}
	// With step 0.2 the fraction pins to 1 after five ticks and stays there.
	if last := got[len(got)-1]; last.Progress != 1 {
		t.Errorf("final progress = %v, want 1", last.Progress)
	}
}

func TestService_StopsWhenRideLeavesActiveStatus(t *testing.T) {
	store := ride.NewMemoryStore()
	r := activeRide(ride.StatusDriverEnRoute)
	if err := store.Create(context.Background(), r); err != nil {
		t.Fatalf("create ride: %v", err)
	}

	svc := NewService(store, Options{Interval: 5 * time.Millisecond, Step: 0.1})
	updates, unsubscribe := svc.Subscribe(r.ID)
	defer unsubscribe()
	svc.Start(r.ID)

	// Wait for the loop to produce at least one tick.
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("no updates before cancel")
	}

	// Cancel the ride out from under the loop; the next tick re-checks
	// status and stops.
	ok, err := store.UpdateStatus(context.Background(), r.ID, ride.StatusDriverEnRoute, ride.StatusCancelled, r.StatusVersion, nil)
	if err != nil || !ok {
		t.Fatalf("cancel ride: ok=%v err=%v", ok, err)
	}

	// Drain updates emitted before the cancel landed, then require silence.
	drainDeadline := time.After(100 * time.Millisecond)
drain:
	for {
		select {
		case <-updates:
		case <-drainDeadline:
			break drain
		}
	}
	select {
	case u := <-updates:
		t.Fatalf("simulation kept ticking after cancel: %+v", u)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestService_StartReplacesRunningLoop(t *testing.T) {
	store := ride.NewMemoryStore()
	r := activeRide(ride.StatusDriverEnRoute)
	if err := store.Create(context.Background(), r); err != nil {
		t.Fatalf("create ride: %v", err)
	}

	svc := NewService(store, Options{Interval: 5 * time.Millisecond, Step: 0.3})
	updates, unsubscribe := svc.Subscribe(r.ID)
	defer unsubscribe()

	svc.Start(r.ID)
	defer svc.Stop(r.ID)

	// Let progress build up, then restart: the replacing loop begins a new
	// leg from progress zero.
	var seen []Update
	timeout := time.After(time.Second)
	for len(seen) < 3 {
		select {
		case u := <-updates:
			seen = append(seen, u)
		case <-timeout:
			t.Fatalf("only %d updates before restart", len(seen))
		}
	}

	svc.Start(r.ID)
	timeout = time.After(time.Second)
	for {
		select {
		case u := <-updates:
			// The first update from the replacement loop restarts low.
			if u.Progress <= seen[len(seen)-1].Progress {
				return
			}
		case <-timeout:
			t.Fatal("restarted loop never emitted a lower progress value")
		}
	}
}
