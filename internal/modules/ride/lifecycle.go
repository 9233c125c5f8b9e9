package ride

import (
	"time"

	"adile/internal/types"
)

// Transitions operate on a copy. On error the returned Ride is the zero value
// and the receiver is untouched.

// Accept assigns driverID to a pending ride.
func (r Ride) Accept(driverID types.ID, driverName string, at time.Time) (Ride, error) {
	if !CanTransition(r.Status, StatusAccepted) || r.DriverID != nil {
		return Ride{}, ErrInvalidTransition
	}
	if driverID == "" || driverID == r.PassengerID {
		return Ride{}, ErrNotParticipant
	}
	next := r
	id := driverID
	next.DriverID = &id
	next.DriverName = driverName
	next.Status = StatusAccepted
	next.AcceptedAt = &at
	return next, nil
}

// Advance moves an accepted ride en route and an en-route ride to completed.
// Only the assigned driver may advance.
func (r Ride) Advance(actor types.ID, at time.Time) (Ride, error) {
	var to Status
	switch r.Status {
	case StatusAccepted:
		to = StatusEnRoute
	case StatusEnRoute:
		to = StatusCompleted
	default:
		return Ride{}, ErrInvalidTransition
	}
	if r.DriverID == nil || *r.DriverID != actor {
		return Ride{}, ErrNotParticipant
	}
	next := r
	next.Status = to
	if to == StatusEnRoute {
		next.StartedAt = &at
	} else {
		next.CompletedAt = &at
	}
	return next, nil
}

// Cancel ends a non-terminal ride on behalf of its passenger or driver.
func (r Ride) Cancel(actor types.ID, at time.Time) (Ride, error) {
	if !CanTransition(r.Status, StatusCancelled) {
		return Ride{}, ErrInvalidTransition
	}
	if !r.HasParticipant(actor) {
		return Ride{}, ErrNotParticipant
	}
	next := r
	by := actor
	next.Status = StatusCancelled
	next.CancelledAt = &at
	next.CancelledBy = &by
	return next, nil
}
