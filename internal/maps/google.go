package maps

import (
	"context"
	"fmt"
	"strings"

	gmaps "googlemaps.github.io/maps"

	"adile/internal/types"
)

// citySuffix narrows free-text queries to the service area.
const citySuffix = " Casablanca Morocco"

// searchRadiusMeters bounds the location bias around the city centre.
const searchRadiusMeters = 30000

// GoogleProvider resolves free text through Places Text Search.
type GoogleProvider struct {
	client *gmaps.Client
	region string
	bias   types.Point
}

type GoogleOption func(*googleOptions)

type googleOptions struct {
	baseURL string
	region  string
	bias    types.Point
}

// WithBaseURL points the client at another endpoint; tests use it with httptest.
func WithBaseURL(url string) GoogleOption {
	return func(o *googleOptions) { o.baseURL = url }
}

func WithRegion(region string) GoogleOption {
	return func(o *googleOptions) { o.region = region }
}

func WithBias(p types.Point) GoogleOption {
	return func(o *googleOptions) { o.bias = p }
}

// NewGoogleProvider creates a provider with the given API key.
func NewGoogleProvider(apiKey string, opts ...GoogleOption) (*GoogleProvider, error) {
	o := googleOptions{region: "ma", bias: CityCentre}
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := []gmaps.ClientOption{gmaps.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, gmaps.WithBaseURL(o.baseURL))
	}
	client, err := gmaps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleProvider{client: client, region: o.region, bias: o.bias}, nil
}

// Lookup returns at most limit places for query.
func (g *GoogleProvider) Lookup(ctx context.Context, query string, limit int) ([]Place, error) {
	req := &gmaps.TextSearchRequest{
		Query:    strings.TrimSpace(query) + citySuffix,
		Region:   g.region,
		Location: &gmaps.LatLng{Lat: g.bias.Lat, Lng: g.bias.Lng},
		Radius:   searchRadiusMeters,
	}
	resp, err := g.client.TextSearch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var out []Place
	for _, r := range resp.Results {
		label := r.FormattedAddress
		if r.Name != "" {
			label = r.Name + ", " + r.FormattedAddress
		}
		out = append(out, Place{
			Name:  shortName(label),
			Point: types.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
