// README: Tracking service runs one position simulation loop per active ride
// and fans updates out to subscribers.
package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ecoride/internal/modules/ride"
	"ecoride/internal/types"
)

// RideSource is the read side of the ride store the loop re-checks on every
// tick before mutating anything.
type RideSource interface {
	Get(ctx context.Context, id types.ID) (*ride.Ride, error)
}

// SnapshotStore persists emitted positions for the tracking history. Writes
// are best-effort; a failed append never stops the simulation.
type SnapshotStore interface {
	Append(ctx context.Context, snap Snapshot) error
}

type Options struct {
	Interval  time.Duration // tick interval, default 3s
	Step      float64       // progress advanced per tick, default 0.05
	Snapshots SnapshotStore
	Logger    *slog.Logger
}

type Service struct {
	rides     RideSource
	snapshots SnapshotStore
	interval  time.Duration
	step      float64
	log       *slog.Logger

	mu      sync.Mutex
	sims    map[types.ID]chan struct{}
	subs    map[types.ID]map[int]chan Update
	nextSub int
}

func NewService(rides RideSource, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = 3 * time.Second
	}
	if opts.Step <= 0 {
		opts.Step = 0.05
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		rides:     rides,
		snapshots: opts.Snapshots,
		interval:  opts.Interval,
		step:      opts.Step,
		log:       opts.Logger,
		sims:      make(map[types.ID]chan struct{}),
		subs:      make(map[types.ID]map[int]chan Update),
	}
}

// Start launches the simulation loop for a ride, replacing any loop already
// running for it so a ride never has two position timers. Progress restarts
// at zero, which is what a leg change (en route → in progress) needs.
func (s *Service) Start(id types.ID) {
	s.mu.Lock()
	if prev, ok := s.sims[id]; ok {
		close(prev)
	}
	stop := make(chan struct{})
	s.sims[id] = stop
	s.mu.Unlock()

	go s.run(id, stop)
}

// Stop ends the simulation loop for a ride, if one is running.
func (s *Service) Stop(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.sims[id]; ok {
		close(stop)
		delete(s.sims, id)
	}
}

// Subscribe returns a channel of simulator updates for the ride and a
// function that releases the subscription. Slow subscribers drop updates
// rather than stalling the loop.
func (s *Service) Subscribe(id types.ID) (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 8)
	if s.subs[id] == nil {
		s.subs[id] = make(map[int]chan Update)
	}
	key := s.nextSub
	s.nextSub++
	s.subs[id][key] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id][key]; ok {
			delete(s.subs[id], key)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *Service) run(id types.ID, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	ctx := context.Background()
	progress := 0.0

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r, err := s.rides.Get(ctx, id)
			if err != nil {
				s.log.Debug("tracking tick on missing ride", "ride_id", id, "error", err)
				s.clear(id, stop)
				return
			}
			// Re-check status inside the tick: a cancel or completion since
			// the last tick stops the loop, never mutates a dead ride.
			if !r.Status.Active() {
				s.clear(id, stop)
				return
			}

			progress += s.step
			if progress > 1 {
				progress = 1
			}
			update, err := Tick(r, progress)
			if err != nil {
				s.log.Debug("tracking tick failed", "ride_id", id, "error", err)
				s.clear(id, stop)
				return
			}
			s.publish(update)
			if s.snapshots != nil {
				if err := s.snapshots.Append(ctx, snapshotOf(r, update)); err != nil {
					s.log.Warn("append position snapshot", "ride_id", id, "error", err)
				}
			}
		}
	}
}

// clear removes the sim entry, but only if it still owns the loop; a Start
// that replaced this loop owns the map slot now.
func (s *Service) clear(id types.ID, stop <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sims[id]; ok && cur == stop {
		delete(s.sims, id)
	}
}

func (s *Service) publish(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[u.RideID] {
		select {
		case ch <- u:
		default:
		}
	}
}
