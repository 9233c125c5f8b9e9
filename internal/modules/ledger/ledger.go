// Package ledger stores every ride ever requested, keyed by id. Writes are
// whole-record and guarded by the ride's Version; callers own the
// read-modify-write cycle.
package ledger

import (
	"context"
	"errors"
	"sort"

	"adile/internal/modules/ride"
	"adile/internal/types"
)

var (
	ErrNotFound        = errors.New("ride not found")
	ErrDuplicateID     = errors.New("ride id already exists")
	ErrVersionConflict = errors.New("ride was modified concurrently")
)

type Ledger interface {
	// Append stores a new ride. The stored version is whatever r carries.
	Append(ctx context.Context, r ride.Ride) error
	// Replace overwrites the ride with r.ID if the stored version still equals
	// r.Version, and returns the stored record with its version bumped.
	Replace(ctx context.Context, r ride.Ride) (ride.Ride, error)
	Get(ctx context.Context, id types.ID) (ride.Ride, error)
	// QueryBy returns a snapshot of matching rides ordered by creation time.
	QueryBy(ctx context.Context, f Filter) ([]ride.Ride, error)
}

// Filter is a conjunction of conditions. Zero fields match everything.
type Filter struct {
	Statuses    []ride.Status
	Participant types.ID
}

func ByStatus(statuses ...ride.Status) Filter {
	return Filter{Statuses: statuses}
}

func ByParticipant(id types.ID) Filter {
	return Filter{Participant: id}
}

// And merges two filters. Status sets are intersected when both are set.
func (f Filter) And(o Filter) Filter {
	out := f
	if o.Participant != "" {
		out.Participant = o.Participant
	}
	switch {
	case len(f.Statuses) == 0:
		out.Statuses = o.Statuses
	case len(o.Statuses) > 0:
		out.Statuses = nil
		for _, s := range f.Statuses {
			for _, t := range o.Statuses {
				if s == t {
					out.Statuses = append(out.Statuses, s)
				}
			}
		}
		if out.Statuses == nil {
			out.Statuses = []ride.Status{ride.StatusNone}
		}
	}
	return out
}

func (f Filter) Match(r ride.Ride) bool {
	if f.Participant != "" && !r.HasParticipant(f.Participant) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

func sortByCreated(rides []ride.Ride) {
	sort.SliceStable(rides, func(i, j int) bool {
		if rides[i].CreatedAt.Equal(rides[j].CreatedAt) {
			return rides[i].ID < rides[j].ID
		}
		return rides[i].CreatedAt.Before(rides[j].CreatedAt)
	})
}
