// README: Account aggregate for passengers and drivers.
package account

import (
    "errors"
    "time"

    "adile/internal/modules/pricing"
    "adile/internal/types"
)

type Role string

const (
    RolePassenger Role = "passenger"
    RoleDriver    Role = "driver"
)

func (r Role) Valid() bool {
    return r == RolePassenger || r == RoleDriver
}

// DefaultRating is given to every new account.
const DefaultRating = 4.8

var (
    ErrNotFound       = errors.New("account not found")
    ErrEmailTaken     = errors.New("email already registered")
    ErrInvalidProfile = errors.New("invalid profile")
)

type Vehicle struct {
    Class       pricing.VehicleClass `json:"class"`
    Description string               `json:"description"`
    Plate       string               `json:"plate"`
}

type Account struct {
    ID          types.ID  `json:"id"`
    Email       string    `json:"email"`
    DisplayName string    `json:"display_name"`
    Role        Role      `json:"role"`
    Rating      float64   `json:"rating"`
    Phone       string    `json:"phone"`
    Vehicle     *Vehicle  `json:"vehicle,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}
