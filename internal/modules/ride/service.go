// README: Ride lifecycle service: booking, cancel/advance transitions and the
// asynchronous driver-match timer.
package ride

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ecoride/internal/geo"
	"ecoride/internal/modules/pricing"
	"ecoride/internal/types"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("ride not found")
	ErrConflict          = errors.New("ride status conflict")
	ErrBadRequest        = errors.New("bad request")
)

// Quoter computes the locked fare for a trip at booking time.
type Quoter interface {
	Estimate(ctx context.Context, pickup, dropoff types.Point, class pricing.VehicleClass) (pricing.Quote, error)
}

// DriverPool supplies the nearest available driver to a pickup point.
type DriverPool interface {
	Nearest(ctx context.Context, p types.Point) (types.ID, error)
}

// Notifier observes ride creation and status changes. Implementations must
// not block; the service calls them on its own goroutines.
type Notifier interface {
	RideCreated(ctx context.Context, r *Ride)
	StatusChanged(ctx context.Context, r *Ride, from Status)
}

type Options struct {
	Drivers    DriverPool
	Notifier   Notifier
	MatchDelay time.Duration // delay before the automatic searching → matched transition
	Logger     *slog.Logger
}

type Service struct {
	store      Store
	quoter     Quoter
	drivers    DriverPool
	notifier   Notifier
	matchDelay time.Duration
	log        *slog.Logger

	mu          sync.Mutex
	matchTimers map[types.ID]*ScheduledTask
}

func NewService(store Store, quoter Quoter, opts Options) *Service {
	if opts.MatchDelay <= 0 {
		opts.MatchDelay = 4 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:       store,
		quoter:      quoter,
		drivers:     opts.Drivers,
		notifier:    opts.Notifier,
		matchDelay:  opts.MatchDelay,
		log:         opts.Logger,
		matchTimers: make(map[types.ID]*ScheduledTask),
	}
}

type BookCommand struct {
	UserID         types.ID
	Pickup         types.Point
	Dropoff        types.Point
	PickupAddress  string
	DropoffAddress string
	VehicleClass   pricing.VehicleClass
	ScheduledFor   *time.Time
}

// Book validates the trip, locks the fare, creates the ride in searching and
// schedules the automatic match transition. Booking is synchronous from the
// caller's perspective; matching happens on the timer.
func (s *Service) Book(ctx context.Context, cmd BookCommand) (*Ride, error) {
	if cmd.UserID == "" || cmd.VehicleClass == "" {
		return nil, ErrBadRequest
	}
	if err := geo.Validate(cmd.Pickup); err != nil {
		return nil, err
	}
	if err := geo.Validate(cmd.Dropoff); err != nil {
		return nil, err
	}
	now := time.Now()
	if cmd.ScheduledFor != nil && cmd.ScheduledFor.Before(now) {
		return nil, ErrBadRequest
	}

	quote, err := s.quoter.Estimate(ctx, cmd.Pickup, cmd.Dropoff, cmd.VehicleClass)
	if err != nil {
		return nil, err
	}

	r := &Ride{
		ID:              newID(),
		UserID:          cmd.UserID,
		Status:          StatusSearching,
		Pickup:          cmd.Pickup,
		Dropoff:         cmd.Dropoff,
		PickupAddress:   cmd.PickupAddress,
		DropoffAddress:  cmd.DropoffAddress,
		VehicleClass:    cmd.VehicleClass,
		Price:           quote.Price,
		DistanceKm:      quote.DistanceKm,
		DurationMinutes: quote.DurationMinutes,
		CarbonGrams:     quote.CarbonGrams,
		CreatedAt:       now,
		ScheduledFor:    cmd.ScheduledFor,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	s.appendEvent(ctx, r.ID, StatusNone, StatusSearching, "passenger")
	if s.notifier != nil {
		s.notifier.RideCreated(ctx, r)
	}

	delay := s.matchDelay
	if r.ScheduledFor != nil {
		// Pre-booked rides start matching at their scheduled time.
		delay = time.Until(*r.ScheduledFor)
	}
	s.scheduleMatch(r.ID, delay)

	cp := *r
	return &cp, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

// Cancel moves a non-terminal ride to cancelled and suppresses its pending
// match timer. Cancelling a ride that is already terminal is a no-op and
// returns false; only a real transition returns true.
func (s *Service) Cancel(ctx context.Context, id types.ID) (bool, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if r.Status.Terminal() {
		return false, nil
	}

	// Stop the timer before the status write so a ride can never be
	// resurrected into matched after the caller observed the cancel.
	s.cancelMatchTimer(id)

	ok, err := s.store.UpdateStatus(ctx, id, r.Status, StatusCancelled, r.StatusVersion, r.DriverID)
	if err != nil {
		return false, err
	}
	if !ok {
		// Lost a race with another transition. If the ride ended up terminal
		// anyway this is the idempotent no-op path.
		r2, err := s.store.Get(ctx, id)
		if err != nil {
			return false, err
		}
		if r2.Status.Terminal() {
			return false, nil
		}
		return false, ErrConflict
	}

	from := r.Status
	r.Status = StatusCancelled
	r.StatusVersion++
	s.appendEvent(ctx, id, from, StatusCancelled, "passenger")
	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, r, from)
	}
	return true, nil
}

type AdvanceCommand struct {
	RideID    types.ID
	Target    Status
	DriverID  *types.ID
	ActorType string // "driver", "dispatch", "system"; defaults to "dispatch"
}

// Advance applies one dispatch- or driver-triggered transition. The target
// must be an immediate successor of the current status.
func (s *Service) Advance(ctx context.Context, cmd AdvanceCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, cmd.Target) {
		return nil, ErrInvalidTransition
	}

	driverID := cmd.DriverID
	if driverID == nil {
		driverID = r.DriverID
	}
	ok, err := s.store.UpdateStatus(ctx, cmd.RideID, r.Status, cmd.Target, r.StatusVersion, driverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	if cmd.Target.Terminal() {
		s.cancelMatchTimer(cmd.RideID)
	}

	actor := cmd.ActorType
	if actor == "" {
		actor = "dispatch"
	}
	from := r.Status
	r.Status = cmd.Target
	r.StatusVersion++
	if driverID != nil {
		d := *driverID
		r.DriverID = &d
	}
	s.appendEvent(ctx, cmd.RideID, from, cmd.Target, actor)
	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, r, from)
	}
	return r, nil
}

// scheduleMatch arms the one-shot driver-match timer for the ride, replacing
// (and cancelling) any previous one so at most one is ever pending per ride.
func (s *Service) scheduleMatch(id types.ID, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.matchTimers[id]; ok {
		prev.Cancel()
	}
	s.matchTimers[id] = schedule(d, func() { s.matchRide(id) })
}

func (s *Service) cancelMatchTimer(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.matchTimers[id]; ok {
		t.Cancel()
		delete(s.matchTimers, id)
	}
}

// matchRide is the match-timer callback. Operating on a ride that has been
// cancelled or completed since scheduling is an expected race, not a fault,
// so every failure here is logged and swallowed.
func (s *Service) matchRide(id types.ID) {
	ctx := context.Background()
	s.cancelMatchTimer(id)

	r, err := s.store.Get(ctx, id)
	if err != nil {
		s.log.Debug("match timer fired on missing ride", "ride_id", id, "error", err)
		return
	}
	if r.Status != StatusSearching {
		s.log.Debug("match timer fired on inactive ride", "ride_id", id, "status", r.Status)
		return
	}

	var driverID types.ID
	if s.drivers != nil {
		driverID, err = s.drivers.Nearest(ctx, r.Pickup)
	} else {
		err = errors.New("no driver pool configured")
	}
	if err != nil {
		s.log.Warn("no driver available, retrying match", "ride_id", id, "error", err)
		s.scheduleMatch(id, s.matchDelay)
		return
	}

	ok, err := s.store.UpdateStatus(ctx, id, StatusSearching, StatusMatched, r.StatusVersion, &driverID)
	if err != nil {
		s.log.Warn("match transition failed", "ride_id", id, "error", err)
		return
	}
	if !ok {
		s.log.Debug("ride left searching before match applied", "ride_id", id)
		return
	}

	r.Status = StatusMatched
	r.StatusVersion++
	r.DriverID = &driverID
	s.appendEvent(ctx, id, StatusSearching, StatusMatched, "system")
	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, r, StatusSearching)
	}
}

func (s *Service) appendEvent(ctx context.Context, id types.ID, from, to Status, actor string) {
	err := s.store.AppendEvent(ctx, &Event{
		RideID:     id,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actor,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		s.log.Warn("append status event", "ride_id", id, "error", err)
	}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
