// README: Location stores backed by Redis GEO and process memory.
package location

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"

    "adile/internal/types"
)

const (
    geoKey  = "adile:driver_positions"
    seenKey = "adile:driver_positions:seen"
)

// geoMaxLat is the latitude bound Redis GEO indexes accept.
const geoMaxLat = 85.05112878

type RedisStore struct {
    redis *redis.Client
}

func NewRedisStore(redis *redis.Client) *RedisStore {
    return &RedisStore{redis: redis}
}

func (s *RedisStore) SetPosition(ctx context.Context, pos DriverPosition) error {
    if pos.Point.Lat > geoMaxLat || pos.Point.Lat < -geoMaxLat {
        return ErrInvalidPoint
    }
    member := string(pos.DriverID)
    _, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
        pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{Name: member, Longitude: pos.Point.Lng, Latitude: pos.Point.Lat})
        pipe.ZAdd(ctx, seenKey, redis.Z{Score: float64(pos.RecordedAt.UnixMilli()), Member: member})
        return nil
    })
    return err
}

func (s *RedisStore) GetPosition(ctx context.Context, driverID types.ID) (*DriverPosition, error) {
    member := string(driverID)
    res, err := s.redis.GeoPos(ctx, geoKey, member).Result()
    if err != nil {
        return nil, err
    }
    if len(res) == 0 || res[0] == nil {
        return nil, nil
    }
    seen, err := s.redis.ZScore(ctx, seenKey, member).Result()
    if errors.Is(err, redis.Nil) {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    return &DriverPosition{
        DriverID:   driverID,
        Point:      types.Point{Lat: res[0].Latitude, Lng: res[0].Longitude},
        RecordedAt: time.UnixMilli(int64(seen)),
    }, nil
}

type MemoryStore struct {
    mu        sync.RWMutex
    positions map[types.ID]DriverPosition
}

func NewMemoryStore() *MemoryStore {
    return &MemoryStore{positions: make(map[types.ID]DriverPosition)}
}

func (s *MemoryStore) SetPosition(_ context.Context, pos DriverPosition) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.positions[pos.DriverID] = pos
    return nil
}

func (s *MemoryStore) GetPosition(_ context.Context, driverID types.ID) (*DriverPosition, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    pos, ok := s.positions[driverID]
    if !ok {
        return nil, nil
    }
    return &pos, nil
}
