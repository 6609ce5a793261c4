// README: Driver pools used by the driver-match step.
package matching

import (
	"context"
	"errors"
	"sync"

	"ecoride/internal/geo"
	"ecoride/internal/types"
)

var ErrNoDrivers = errors.New("no drivers available")

// Pool tracks available drivers and answers nearest-driver queries against a
// pickup point.
type Pool interface {
	Upsert(ctx context.Context, id types.ID, pos types.Point) error
	Remove(ctx context.Context, id types.ID) error
	Nearest(ctx context.Context, p types.Point) (types.ID, error)
}

// MemoryPool is the single-node pool used by tests and simulation runs.
type MemoryPool struct {
	mu      sync.Mutex
	drivers map[types.ID]types.Point
}

func NewMemoryPool() *MemoryPool {
	return &MemoryPool{drivers: make(map[types.ID]types.Point)}
}

func (p *MemoryPool) Upsert(ctx context.Context, id types.ID, pos types.Point) error {
	if err := geo.Validate(pos); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drivers[id] = pos
	return nil
}

func (p *MemoryPool) Remove(ctx context.Context, id types.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.drivers, id)
	return nil
}

type rankedDriver struct {
	id   types.ID
	dist float64
}

func (p *MemoryPool) Nearest(ctx context.Context, target types.Point) (types.ID, error) {
	if err := geo.Validate(target); err != nil {
		return "", err
	}
	p.mu.Lock()
	ranked := make([]rankedDriver, 0, len(p.drivers))
	for id, pos := range p.drivers {
		d, err := geo.DistanceKm(target, pos)
		if err != nil {
			continue
		}
		ranked = append(ranked, rankedDriver{id: id, dist: d})
	}
	p.mu.Unlock()

	if len(ranked) == 0 {
		return "", ErrNoDrivers
	}
	geo.SortByDistance(ranked, func(r rankedDriver) float64 { return r.dist })
	return ranked[0].id, nil
}
