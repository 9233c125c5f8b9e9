// README: Matching service filters open rides down to a driver's service radius.
package matching

import (
    "context"

    "adile/internal/modules/location"
    "adile/internal/modules/ride"
    "adile/internal/types"
)

// Nearby keeps pending rides whose pickup lies within radiusKm of origin.
// A nil origin means the position is unknown and every pending ride is kept.
func Nearby(rides []ride.Ride, origin *types.Point, radiusKm float64) []ride.Ride {
    out := make([]ride.Ride, 0, len(rides))
    for _, r := range rides {
        if r.Status != ride.StatusPending {
            continue
        }
        if origin != nil && location.DistanceKm(*origin, r.Pickup.Point) > radiusKm {
            continue
        }
        out = append(out, r)
    }
    return out
}

type OpenRides interface {
    ListOpenRequests(ctx context.Context) ([]ride.Ride, error)
}

type Locator interface {
    LastKnown(ctx context.Context, driverID types.ID) *types.Point
}

type Service struct {
    rides    OpenRides
    locator  Locator
    radiusKm float64
}

func NewService(rides OpenRides, locator Locator, radiusKm float64) *Service {
    if radiusKm <= 0 {
        radiusKm = DefaultRadiusKm
    }
    return &Service{rides: rides, locator: locator, radiusKm: radiusKm}
}

func (s *Service) RadiusKm() float64 {
    return s.radiusKm
}

// Nearby lists open rides for a driver. When origin is nil the driver's last
// known position is used; if that is unknown too, nothing is filtered out.
func (s *Service) Nearby(ctx context.Context, driverID types.ID, origin *types.Point) ([]Candidate, error) {
    open, err := s.rides.ListOpenRequests(ctx)
    if err != nil {
        return nil, err
    }
    if origin == nil && s.locator != nil {
        origin = s.locator.LastKnown(ctx, driverID)
    }

    kept := Nearby(open, origin, s.radiusKm)
    out := make([]Candidate, 0, len(kept))
    for _, r := range kept {
        c := Candidate{Ride: r}
        if origin != nil {
            d := location.DistanceKm(*origin, r.Pickup.Point)
            c.DistanceKm = &d
        }
        out = append(out, c)
    }
    if origin != nil {
        location.SortByDistance(out, func(c Candidate) float64 { return *c.DistanceKm })
    }
    return out, nil
}
