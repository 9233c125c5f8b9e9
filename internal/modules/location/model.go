// README: Driver position snapshot kept for proximity matching.
package location

import (
    "errors"
    "time"

    "adile/internal/types"
)

var ErrInvalidPoint = errors.New("invalid coordinate")

type DriverPosition struct {
    DriverID   types.ID    `json:"driver_id"`
    Point      types.Point `json:"point"`
    RecordedAt time.Time   `json:"recorded_at"`
}
