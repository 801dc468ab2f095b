// Package location abstracts the device geolocation source so the engine
// never depends on a specific platform API.
package location

import "context"

// Location is one device position fix.
type Location struct {
	Latitude  float64
	Longitude float64
	// AccuracyMeters is the radius of the fix's confidence circle.
	AccuracyMeters float64
}

// Provider supplies the current device position.
type Provider interface {
	Current(ctx context.Context) (Location, error)
}

// StaticProvider always reports a fixed position. Used by the CLI (explicit
// -lat/-lng flags) and by tests.
type StaticProvider struct {
	loc Location
}

func NewStaticProvider(lat, lng, accuracy float64) *StaticProvider {
	return &StaticProvider{loc: Location{Latitude: lat, Longitude: lng, AccuracyMeters: accuracy}}
}

func (p *StaticProvider) Current(ctx context.Context) (Location, error) {
	return p.loc, nil
}
