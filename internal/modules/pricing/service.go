// README: Pricing service computes fare estimates.
package pricing

import (
    "context"
    "math"

    "adile/internal/modules/location"
    "adile/internal/types"
)

// Fare prices a trip: the base covers the first kilometre and every further
// (fractional) kilometre adds PerExtraKm before the class multiplier applies.
func Fare(distanceKm, multiplier float64) int64 {
    raw := BaseFare
    if distanceKm > BaseCoverKm {
        raw += (distanceKm - BaseCoverKm) * PerExtraKm
    }
    fare := math.Round(raw * multiplier)
    if fare < 0 {
        return 0
    }
    return int64(fare)
}

type Quote struct {
    Vehicle    VehicleClass `json:"vehicle"`
    DistanceKm float64      `json:"distance_km"`
    Price      types.Money  `json:"price"`
}

type Service struct{}

func NewService() *Service {
    return &Service{}
}

func (s *Service) Estimate(ctx context.Context, distanceKm float64, vehicle VehicleClass) (types.Money, error) {
    if !vehicle.Valid() {
        return types.Money{}, ErrUnknownVehicle
    }
    return types.MAD(Fare(distanceKm, vehicle.Multiplier())), nil
}

func (s *Service) Quote(ctx context.Context, pickup, dropoff types.Point, vehicle VehicleClass) (Quote, error) {
    d := location.DistanceKm(pickup, dropoff)
    price, err := s.Estimate(ctx, d, vehicle)
    if err != nil {
        return Quote{}, err
    }
    return Quote{Vehicle: vehicle, DistanceKm: d, Price: price}, nil
}
