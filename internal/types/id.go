// README: Opaque identifiers and coordinates shared by every module.
package types

import "github.com/google/uuid"

// ID identifies rides and accounts. Values are opaque to callers.
type ID string

func NewID() ID {
    return ID(uuid.NewString())
}

func (id ID) String() string {
    return string(id)
}

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
    Lat float64 `json:"lat"`
    Lng float64 `json:"lng"`
}

func (p Point) Valid() bool {
    return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
