package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"adile/internal/modules/ride"
	"adile/internal/types"
)

const (
	// RideKeyPrefix prefixes one string key per ride holding its JSON record.
	RideKeyPrefix = "adile:rides:"
	// RideIndexKey is the set of every ride id ever appended.
	RideIndexKey = "adile:ride_ids"
)

type RedisLedger struct {
	redis *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{redis: client}
}

func rideKey(id types.ID) string {
	return RideKeyPrefix + string(id)
}

func (l *RedisLedger) Append(ctx context.Context, r ride.Ride) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode ride: %w", err)
	}
	var created *redis.BoolCmd
	_, err = l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.SetNX(ctx, rideKey(r.ID), b, 0)
		pipe.SAdd(ctx, RideIndexKey, string(r.ID))
		return nil
	})
	if err != nil {
		return err
	}
	if !created.Val() {
		return ErrDuplicateID
	}
	return nil
}

// Replace watches only the ride's own key; writes to other rides never abort it.
func (l *RedisLedger) Replace(ctx context.Context, r ride.Ride) (ride.Ride, error) {
	key := rideKey(r.ID)
	var stored ride.Ride
	err := l.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := getRide(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		if cur.Version != r.Version {
			return ErrVersionConflict
		}
		stored = r
		stored.Version++
		b, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("encode ride: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ride.Ride{}, ErrVersionConflict
	}
	if err != nil {
		return ride.Ride{}, err
	}
	return stored, nil
}

func (l *RedisLedger) Get(ctx context.Context, id types.ID) (ride.Ride, error) {
	return getRide(ctx, l.redis, id)
}

func (l *RedisLedger) QueryBy(ctx context.Context, f Filter) ([]ride.Ride, error) {
	ids, err := l.redis.SMembers(ctx, RideIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []ride.Ride{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = rideKey(types.ID(id))
	}
	vals, err := l.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ride.Ride, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var r ride.Ride
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			return nil, fmt.Errorf("decode ride: %w", err)
		}
		if f.Match(r) {
			out = append(out, r)
		}
	}
	sortByCreated(out)
	return out, nil
}

func getRide(ctx context.Context, c redis.Cmdable, id types.ID) (ride.Ride, error) {
	b, err := c.Get(ctx, rideKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ride.Ride{}, ErrNotFound
	}
	if err != nil {
		return ride.Ride{}, err
	}
	var r ride.Ride
	if err := json.Unmarshal(b, &r); err != nil {
		return ride.Ride{}, fmt.Errorf("decode ride %s: %w", id, err)
	}
	return r, nil
}
