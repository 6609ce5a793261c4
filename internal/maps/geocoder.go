package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"ecoride/internal/types"
)

// Geocoder resolves street addresses to coordinates through the Google
// Geocoding API.
type Geocoder struct {
	client *maps.Client
	region string
}

// NewGeocoder creates a new Geocoder with the given API Key. Region biases
// ambiguous results and may be empty.
func NewGeocoder(apiKey, region string) (*Geocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Geocoder{client: client, region: region}, nil
}

// Geocode returns the coordinates of the best match for the address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (types.Point, error) {
	r := &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	}
	results, err := g.client.Geocode(ctx, r)
	if err != nil {
		return types.Point{}, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("no geocoding result for %q", address)
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// ReverseGeocode returns a formatted address for the coordinates, used to fill
// in a display address when the client sends raw coordinates.
func (g *Geocoder) ReverseGeocode(ctx context.Context, p types.Point) (string, error) {
	r := &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	}
	results, err := g.client.ReverseGeocode(ctx, r)
	if err != nil {
		return "", fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no address found for %.5f,%.5f", p.Lat, p.Lng)
	}
	return results[0].FormattedAddress, nil
}
