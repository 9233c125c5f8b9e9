package maps

import (
	"errors"
	"strings"

	"adile/internal/types"
)

// ErrProviderUnavailable is logged when the geocoding provider fails. Search
// never returns it; the gazetteer answers instead.
var ErrProviderUnavailable = errors.New("place provider unavailable")

// Place is a named candidate location.
type Place struct {
	Name  string      `json:"name"`
	Point types.Point `json:"point"`
}

// CityCentre biases provider lookups toward Casablanca.
var CityCentre = types.Point{Lat: 33.5731, Lng: -7.5898}

// gazetteer is the offline fallback, in display order.
var gazetteer = []Place{
	{Name: "Maarif", Point: types.Point{Lat: 33.5784, Lng: -7.6331}},
	{Name: "Anfa", Point: types.Point{Lat: 33.5951, Lng: -7.6664}},
	{Name: "Bourgone", Point: types.Point{Lat: 33.5989, Lng: -7.6417}},
	{Name: "Oulfa", Point: types.Point{Lat: 33.5547, Lng: -7.6718}},
	{Name: "Hay Hassani", Point: types.Point{Lat: 33.5516, Lng: -7.6592}},
	{Name: "Sidi Maarouf", Point: types.Point{Lat: 33.5356, Lng: -7.6251}},
	{Name: "Morocco Mall", Point: types.Point{Lat: 33.5884, Lng: -7.7058}},
	{Name: "Hassan II Mosque", Point: types.Point{Lat: 33.6085, Lng: -7.6327}},
}

// Gazetteer returns the fallback places whose name contains query, ignoring case.
func Gazetteer(query string) []Place {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Place
	for _, p := range gazetteer {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

// shortName keeps the first two comma-separated parts of a provider label.
func shortName(label string) string {
	parts := strings.Split(label, ",")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}
