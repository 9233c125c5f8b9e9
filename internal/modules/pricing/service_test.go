package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adile/internal/types"
)

func TestFare(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		multiplier float64
		want       int64
	}{
		{name: "under base distance", distanceKm: 0.5, multiplier: 1.0, want: 8},
		{name: "exactly base distance", distanceKm: 1.0, multiplier: 1.0, want: 8},
		{name: "five km car", distanceKm: 5.0, multiplier: 1.0, want: 20},
		{name: "five km motorcycle", distanceKm: 5.0, multiplier: 0.6, want: 12},
		{name: "five km van", distanceKm: 5.0, multiplier: 1.5, want: 30},
		{name: "fractional km is not rounded per km", distanceKm: 2.4, multiplier: 1.0, want: 12},
		{name: "zero distance", distanceKm: 0, multiplier: 1.0, want: 8},
		{name: "negative multiplier clamps", distanceKm: 3, multiplier: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fare(tt.distanceKm, tt.multiplier))
		})
	}
}

func TestParseVehicleClass(t *testing.T) {
	v, err := ParseVehicleClass(" Van ")
	require.NoError(t, err)
	assert.Equal(t, VehicleVan, v)
	assert.Equal(t, "Van", v.Label())
	assert.Equal(t, 1.5, v.Multiplier())

	_, err = ParseVehicleClass("bicycle")
	assert.ErrorIs(t, err, ErrUnknownVehicle)
}

func TestService_Estimate(t *testing.T) {
	s := NewService()

	m, err := s.Estimate(context.Background(), 5.0, VehicleMotorcycle)
	require.NoError(t, err)
	assert.Equal(t, types.MAD(12), m)

	_, err = s.Estimate(context.Background(), 5.0, VehicleClass("truck"))
	assert.ErrorIs(t, err, ErrUnknownVehicle)
}

func TestService_Quote(t *testing.T) {
	s := NewService()
	q, err := s.Quote(context.Background(),
		types.Point{Lat: 33.5900, Lng: -7.6200},
		types.Point{Lat: 33.6085, Lng: -7.6327},
		VehicleCar,
	)
	require.NoError(t, err)
	assert.InDelta(t, 2.4, q.DistanceKm, 0.1)
	assert.Equal(t, int64(12), q.Price.Amount)
	assert.Equal(t, types.CurrencyMAD, q.Price.Currency)
}
