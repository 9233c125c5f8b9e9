package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: 33.5731, Lng: -7.5898}.Valid())
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Point{Lat: 90.01, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -180.5}.Valid())
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[ID]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "12 MAD", MAD(12).String())
}
