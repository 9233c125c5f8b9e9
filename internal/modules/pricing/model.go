// README: Vehicle classes and the fare schedule they are priced with.
package pricing

import (
    "errors"
    "strings"
)

type VehicleClass string

const (
    VehicleCar        VehicleClass = "car"
    VehicleMotorcycle VehicleClass = "motorcycle"
    VehicleVan        VehicleClass = "van"
)

var ErrUnknownVehicle = errors.New("unknown vehicle class")

// Fare schedule in whole dirhams.
const (
    BaseFare    = 8.0
    BaseCoverKm = 1.0
    PerExtraKm  = 3.0
)

var classes = map[VehicleClass]struct {
    label      string
    multiplier float64
}{
    VehicleCar:        {label: "Car", multiplier: 1.0},
    VehicleMotorcycle: {label: "Motorcycle", multiplier: 0.6},
    VehicleVan:        {label: "Van", multiplier: 1.5},
}

// VehicleClasses lists every class in display order.
func VehicleClasses() []VehicleClass {
    return []VehicleClass{VehicleCar, VehicleMotorcycle, VehicleVan}
}

func ParseVehicleClass(s string) (VehicleClass, error) {
    v := VehicleClass(strings.ToLower(strings.TrimSpace(s)))
    if !v.Valid() {
        return "", ErrUnknownVehicle
    }
    return v, nil
}

func (v VehicleClass) Valid() bool {
    _, ok := classes[v]
    return ok
}

func (v VehicleClass) Label() string {
    return classes[v].label
}

// Multiplier returns 0 for an unknown class.
func (v VehicleClass) Multiplier() float64 {
    return classes[v].multiplier
}
