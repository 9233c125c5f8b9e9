// README: Dispatcher composes the ride lifecycle, the ledger and pricing into
// the passenger and driver operations.
package dispatch

import (
    "context"
    "errors"
    "sort"
    "time"

    "github.com/sirupsen/logrus"

    "adile/internal/events"
    "adile/internal/modules/account"
    "adile/internal/modules/ledger"
    "adile/internal/modules/location"
    "adile/internal/modules/pricing"
    "adile/internal/modules/ride"
    "adile/internal/observability"
    "adile/internal/types"
)

// maxAttempts bounds the load-validate-replace loop per operation.
const maxAttempts = 4

var (
    ErrRideUnavailable = errors.New("ride is no longer available")
    ErrActiveRide      = errors.New("account already has an active ride")
    ErrConflict        = errors.New("ride state conflict")
    ErrWrongRole       = errors.New("account role not allowed for this operation")
    ErrInvalidLocation = ride.ErrInvalidLocation
    ErrNotFound        = ledger.ErrNotFound
)

type Pricing interface {
    Estimate(ctx context.Context, distanceKm float64, vehicle pricing.VehicleClass) (types.Money, error)
}

type Deps struct {
    Ledger  ledger.Ledger
    Pricing Pricing
    Events  events.Publisher
    Log     logrus.FieldLogger
    // Leases, when set, makes the per-account lock hold across instances.
    Leases  *RedisLeases
}

type Service struct {
    ledger  ledger.Ledger
    pricing Pricing
    events  events.Publisher
    log     logrus.FieldLogger
    locks   *accountLocks
    leases  *RedisLeases
    now     func() time.Time
    newID   func() types.ID
}

func NewService(d Deps) *Service {
    return &Service{
        ledger:  d.Ledger,
        pricing: d.Pricing,
        events:  d.Events,
        log:     d.Log,
        locks:   newAccountLocks(),
        leases:  d.Leases,
        now:     func() time.Time { return time.Now().UTC() },
        newID:   types.NewID,
    }
}

type RequestCommand struct {
    Passenger account.Account
    Pickup    ride.Location
    Dropoff   ride.Location
    Vehicle   pricing.VehicleClass
}

type AcceptCommand struct {
    RideID types.ID
    Driver account.Account
}

type AdvanceCommand struct {
    RideID types.ID
    Actor  account.Account
}

type CancelCommand struct {
    RideID types.ID
    Actor  account.Account
}

func (s *Service) RequestRide(ctx context.Context, cmd RequestCommand) (ride.Ride, error) {
    defer observeSince("request", time.Now())

    if cmd.Passenger.Role != account.RolePassenger {
        return ride.Ride{}, ErrWrongRole
    }
    if err := cmd.Pickup.Validate(); err != nil {
        return ride.Ride{}, err
    }
    if err := cmd.Dropoff.Validate(); err != nil {
        return ride.Ride{}, err
    }
    if cmd.Pickup.Point == cmd.Dropoff.Point {
        return ride.Ride{}, ErrInvalidLocation
    }
    price, err := s.pricing.Estimate(ctx, location.DistanceKm(cmd.Pickup.Point, cmd.Dropoff.Point), cmd.Vehicle)
    if err != nil {
        return ride.Ride{}, err
    }

    unlock, err := s.acquire(ctx, cmd.Passenger.ID)
    if err != nil {
        return ride.Ride{}, err
    }
    defer unlock()

    if err := s.ensureIdle(ctx, cmd.Passenger.ID); err != nil {
        return ride.Ride{}, err
    }

    r := ride.Ride{
        ID:            s.newID(),
        PassengerID:   cmd.Passenger.ID,
        PassengerName: cmd.Passenger.DisplayName,
        Pickup:        cmd.Pickup,
        Dropoff:       cmd.Dropoff,
        OfferedPrice:  price,
        Vehicle:       cmd.Vehicle,
        Status:        ride.StatusPending,
        CreatedAt:     s.now(),
    }
    if err := s.ledger.Append(ctx, r); err != nil {
        return ride.Ride{}, err
    }
    s.record(ctx, ride.StatusNone, r, cmd.Passenger.ID)
    return r, nil
}

func (s *Service) AcceptRide(ctx context.Context, cmd AcceptCommand) (ride.Ride, error) {
    defer observeSince("accept", time.Now())

    if cmd.Driver.Role != account.RoleDriver {
        return ride.Ride{}, ErrWrongRole
    }

    unlock, err := s.acquire(ctx, cmd.Driver.ID)
    if err != nil {
        return ride.Ride{}, err
    }
    defer unlock()

    if err := s.ensureIdle(ctx, cmd.Driver.ID); err != nil {
        return ride.Ride{}, err
    }
    r, err := s.mutate(ctx, "accept", cmd.RideID, cmd.Driver.ID, func(cur ride.Ride, at time.Time) (ride.Ride, error) {
        if cur.Status != ride.StatusPending {
            return ride.Ride{}, ErrRideUnavailable
        }
        return cur.Accept(cmd.Driver.ID, cmd.Driver.DisplayName, at)
    })
    if errors.Is(err, ErrRideUnavailable) {
        observability.RideConflicts.WithLabelValues("accept", "unavailable").Inc()
    }
    return r, err
}

// AdvanceRide moves the ride one step forward; the current status decides
// whether that means en route or completed.
func (s *Service) AdvanceRide(ctx context.Context, cmd AdvanceCommand) (ride.Ride, error) {
    defer observeSince("advance", time.Now())
    return s.mutate(ctx, "advance", cmd.RideID, cmd.Actor.ID, func(cur ride.Ride, at time.Time) (ride.Ride, error) {
        return cur.Advance(cmd.Actor.ID, at)
    })
}

func (s *Service) CancelRide(ctx context.Context, cmd CancelCommand) (ride.Ride, error) {
    defer observeSince("cancel", time.Now())
    return s.mutate(ctx, "cancel", cmd.RideID, cmd.Actor.ID, func(cur ride.Ride, at time.Time) (ride.Ride, error) {
        return cur.Cancel(cmd.Actor.ID, at)
    })
}

func (s *Service) Get(ctx context.Context, id types.ID) (ride.Ride, error) {
    return s.ledger.Get(ctx, id)
}

func (s *Service) ListOpenRequests(ctx context.Context) ([]ride.Ride, error) {
    return s.ledger.QueryBy(ctx, ledger.ByStatus(ride.StatusPending))
}

// ListHistory returns the finished rides of an account, newest first.
func (s *Service) ListHistory(ctx context.Context, accountID types.ID) ([]ride.Ride, error) {
    rides, err := s.ledger.QueryBy(ctx, ledger.ByParticipant(accountID).And(ledger.ByStatus(ride.StatusCompleted, ride.StatusCancelled)))
    if err != nil {
        return nil, err
    }
    sort.SliceStable(rides, func(i, j int) bool {
        return rides[i].CreatedAt.After(rides[j].CreatedAt)
    })
    return rides, nil
}

// ActiveRide returns nil when the account has no ride in progress.
func (s *Service) ActiveRide(ctx context.Context, accountID types.ID) (*ride.Ride, error) {
    rides, err := s.ledger.QueryBy(ctx, ledger.ByParticipant(accountID).And(ledger.ByStatus(ride.StatusPending, ride.StatusAccepted, ride.StatusEnRoute)))
    if err != nil || len(rides) == 0 {
        return nil, err
    }
    r := rides[len(rides)-1]
    return &r, nil
}

// acquire serializes work on one account: in process always, and across
// instances when leases are configured.
func (s *Service) acquire(ctx context.Context, id types.ID) (func(), error) {
    unlock := s.locks.lock(id)
    if s.leases == nil {
        return unlock, nil
    }
    release, err := s.leases.acquire(ctx, id)
    if err != nil {
        unlock()
        return nil, err
    }
    return func() {
        release()
        unlock()
    }, nil
}

func (s *Service) ensureIdle(ctx context.Context, accountID types.ID) error {
    active, err := s.ActiveRide(ctx, accountID)
    if err != nil {
        return err
    }
    if active != nil {
        return ErrActiveRide
    }
    return nil
}

// mutate runs load, transition and compare-and-swap replace as one unit,
// reloading when another writer got there first.
func (s *Service) mutate(ctx context.Context, op string, id, actor types.ID, apply func(ride.Ride, time.Time) (ride.Ride, error)) (ride.Ride, error) {
    for attempt := 0; attempt < maxAttempts; attempt++ {
        cur, err := s.ledger.Get(ctx, id)
        if err != nil {
            return ride.Ride{}, err
        }
        next, err := apply(cur, s.now())
        if err != nil {
            return ride.Ride{}, err
        }
        stored, err := s.ledger.Replace(ctx, next)
        if errors.Is(err, ledger.ErrVersionConflict) {
            observability.RideConflicts.WithLabelValues(op, "retry").Inc()
            continue
        }
        if err != nil {
            return ride.Ride{}, err
        }
        s.record(ctx, cur.Status, stored, actor)
        return stored, nil
    }
    observability.RideConflicts.WithLabelValues(op, "exhausted").Inc()
    return ride.Ride{}, ErrConflict
}

func (s *Service) record(ctx context.Context, from ride.Status, r ride.Ride, actor types.ID) {
    observability.RideTransitions.WithLabelValues(string(r.Status)).Inc()
    s.log.WithFields(logrus.Fields{
        "ride_id": r.ID,
        "from":    from,
        "to":      r.Status,
        "actor":   actor,
        "version": r.Version,
    }).Info("ride transition")

    if s.events == nil {
        return
    }
    err := s.events.Publish(ctx, string(r.ID), ride.Event{
        RideID:     r.ID,
        FromStatus: from,
        ToStatus:   r.Status,
        ActorID:    actor,
        Version:    r.Version,
        CreatedAt:  s.now(),
    })
    if err != nil {
        observability.EventPublishFailures.Inc()
        s.log.WithError(err).WithField("ride_id", r.ID).Warn("publish ride event")
    }
}

func observeSince(op string, start time.Time) {
    observability.DispatchLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
