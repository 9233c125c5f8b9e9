// README: Ride aggregate and status definitions.
package ride

import (
    "errors"
    "strings"
    "time"

    "adile/internal/modules/pricing"
    "adile/internal/types"
)

type Status string

const (
    StatusNone      Status = "none"
    StatusPending   Status = "pending"
    StatusAccepted  Status = "accepted"
    StatusEnRoute   Status = "en_route"
    StatusCompleted Status = "completed"
    StatusCancelled Status = "cancelled"
)

var (
    ErrInvalidTransition = errors.New("invalid state transition")
    ErrNotParticipant    = errors.New("actor is not a participant of this ride")
    ErrInvalidLocation   = errors.New("invalid location")
)

// AllowedTransitions represents the ride state flow as code.
var AllowedTransitions = map[Status][]Status{
    StatusPending:  {StatusAccepted, StatusCancelled},
    StatusAccepted: {StatusEnRoute, StatusCancelled},
    StatusEnRoute:  {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
    next, ok := AllowedTransitions[from]
    if !ok {
        return false
    }
    for _, s := range next {
        if s == to {
            return true
        }
    }
    return false
}

func (s Status) Terminal() bool {
    return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether the ride still binds its participants.
func (s Status) Active() bool {
    return s == StatusPending || s == StatusAccepted || s == StatusEnRoute
}

type Location struct {
    Address string      `json:"address"`
    Point   types.Point `json:"point"`
}

func (l Location) Validate() error {
    if strings.TrimSpace(l.Address) == "" || !l.Point.Valid() {
        return ErrInvalidLocation
    }
    return nil
}

type Ride struct {
    ID            types.ID             `json:"id"`
    PassengerID   types.ID             `json:"passenger_id"`
    PassengerName string               `json:"passenger_name"`
    Pickup        Location             `json:"pickup"`
    Dropoff       Location             `json:"dropoff"`
    OfferedPrice  types.Money          `json:"offered_price"`
    Vehicle       pricing.VehicleClass `json:"vehicle"`
    Status        Status               `json:"status"`
    DriverID      *types.ID            `json:"driver_id,omitempty"`
    DriverName    string               `json:"driver_name,omitempty"`
    Version       int                  `json:"version"`
    CreatedAt     time.Time            `json:"created_at"`
    AcceptedAt    *time.Time           `json:"accepted_at,omitempty"`
    StartedAt     *time.Time           `json:"started_at,omitempty"`
    CompletedAt   *time.Time           `json:"completed_at,omitempty"`
    CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
    CancelledBy   *types.ID            `json:"cancelled_by,omitempty"`
}

// HasParticipant reports whether id is the passenger or the assigned driver.
func (r Ride) HasParticipant(id types.ID) bool {
    if id == "" {
        return false
    }
    return r.PassengerID == id || (r.DriverID != nil && *r.DriverID == id)
}

// Event records one status change for downstream consumers.
type Event struct {
    RideID     types.ID  `json:"ride_id"`
    FromStatus Status    `json:"from_status"`
    ToStatus   Status    `json:"to_status"`
    ActorID    types.ID  `json:"actor_id"`
    Version    int       `json:"version"`
    CreatedAt  time.Time `json:"created_at"`
}
