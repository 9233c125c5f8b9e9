package account

import (
	"fmt"
	"regexp"
	"strings"

	"adile/internal/modules/pricing"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Moroccan mobile and landline numbers: +2126..., 06..., 07..., 05...
	phoneRe = regexp.MustCompile(`^(?:\+212|0)([5-7])\d{8}$`)
)

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func ValidPhone(phone string) bool {
	return phoneRe.MatchString(strings.Join(strings.Fields(phone), ""))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c SignupCommand) validate() error {
	if !ValidEmail(normalizeEmail(c.Email)) {
		return fmt.Errorf("%w: email", ErrInvalidProfile)
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return fmt.Errorf("%w: display name", ErrInvalidProfile)
	}
	if !ValidPhone(c.Phone) {
		return fmt.Errorf("%w: phone", ErrInvalidProfile)
	}
	switch c.Role {
	case RolePassenger:
		return nil
	case RoleDriver:
		if c.Vehicle == nil {
			return fmt.Errorf("%w: driver needs a vehicle", ErrInvalidProfile)
		}
		if !c.Vehicle.Class.Valid() {
			return fmt.Errorf("%w: %v", ErrInvalidProfile, pricing.ErrUnknownVehicle)
		}
		if strings.TrimSpace(c.Vehicle.Plate) == "" {
			return fmt.Errorf("%w: plate number", ErrInvalidProfile)
		}
		return nil
	default:
		return fmt.Errorf("%w: role", ErrInvalidProfile)
	}
}
