package ledger

import (
	"context"
	"sync"

	"adile/internal/modules/ride"
	"adile/internal/types"
)

type MemoryLedger struct {
	mu    sync.RWMutex
	rides map[types.ID]ride.Ride
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{rides: make(map[types.ID]ride.Ride)}
}

func (l *MemoryLedger) Append(_ context.Context, r ride.Ride) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rides[r.ID]; ok {
		return ErrDuplicateID
	}
	l.rides[r.ID] = r
	return nil
}

func (l *MemoryLedger) Replace(_ context.Context, r ride.Ride) (ride.Ride, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.rides[r.ID]
	if !ok {
		return ride.Ride{}, ErrNotFound
	}
	if cur.Version != r.Version {
		return ride.Ride{}, ErrVersionConflict
	}
	r.Version++
	l.rides[r.ID] = r
	return r, nil
}

func (l *MemoryLedger) Get(_ context.Context, id types.ID) (ride.Ride, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.rides[id]
	if !ok {
		return ride.Ride{}, ErrNotFound
	}
	return r, nil
}

func (l *MemoryLedger) QueryBy(_ context.Context, f Filter) ([]ride.Ride, error) {
	l.mu.RLock()
	out := make([]ride.Ride, 0)
	for _, r := range l.rides {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	l.mu.RUnlock()
	sortByCreated(out)
	return out, nil
}
