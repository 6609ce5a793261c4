// README: Driver pool backed by Redis GEO.
package matching

import (
	"context"

	"github.com/redis/go-redis/v9"

	"ecoride/internal/geo"
	"ecoride/internal/types"
)

const driverGeoKey = "matching:drivers"

// RedisPool is the shared pool for multi-instance deployments. Driver
// positions live in one GEO set keyed by driver id.
type RedisPool struct {
	redis    *redis.Client
	radiusKm float64
}

func NewRedisPool(client *redis.Client, radiusKm float64) *RedisPool {
	if radiusKm <= 0 {
		radiusKm = 3.0
	}
	return &RedisPool{redis: client, radiusKm: radiusKm}
}

func (p *RedisPool) Upsert(ctx context.Context, id types.ID, pos types.Point) error {
	if err := geo.Validate(pos); err != nil {
		return err
	}
	return p.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (p *RedisPool) Remove(ctx context.Context, id types.ID) error {
	return p.redis.ZRem(ctx, driverGeoKey, string(id)).Err()
}

func (p *RedisPool) Nearest(ctx context.Context, target types.Point) (types.ID, error) {
	if err := geo.Validate(target); err != nil {
		return "", err
	}
	results, err := p.redis.GeoSearch(ctx, driverGeoKey, &redis.GeoSearchQuery{
		Longitude:  target.Lng,
		Latitude:   target.Lat,
		Radius:     p.radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
		Count:      1,
	}).Result()
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", ErrNoDrivers
	}
	return types.ID(results[0]), nil
}
