// README: Matching candidates shown to drivers.
package matching

import (
    "adile/internal/modules/ride"
)

// DefaultRadiusKm is the service radius used when none is configured.
const DefaultRadiusKm = 20.0

// Candidate is an open ride as seen from a driver. DistanceKm is nil when the
// driver's position is unknown.
type Candidate struct {
    Ride       ride.Ride `json:"ride"`
    DistanceKm *float64  `json:"distance_km,omitempty"`
}
