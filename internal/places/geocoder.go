package places

import (
	"context"
	"errors"
	"fmt"

	"github.com/nitesh/cafe_service/internal/logger"
)

// ErrNoGeocodeResult is carried by a GeocodeResult when the provider answered
// but gave nothing usable.
var ErrNoGeocodeResult = errors.New("GEOCODE_NO_RESULT")

// GeocodeResult separates "no location" from the reason there is none.
// Err is diagnostic only; callers branch on Found.
type GeocodeResult struct {
	Location *LatLng
	Err      error
}

// Found reports whether a usable location was resolved.
func (r GeocodeResult) Found() bool {
	return r.Location != nil
}

// GeocodeAPI is the subset of Client the Geocoder needs.
type GeocodeAPI interface {
	Geocode(ctx context.Context, address string) (*GeocodeResponse, error)
}

// Geocoder resolves place names to coordinates on a best-effort basis.
type Geocoder struct {
	api    GeocodeAPI
	logger logger.Logger
}

func NewGeocoder(api GeocodeAPI, log logger.Logger) *Geocoder {
	return &Geocoder{
		api:    api,
		logger: log.With(map[string]interface{}{"component": "geocoder"}),
	}
}

// Resolve looks up name and returns the first result's coordinates. It never
// fails; every failure is reported as a result without a location.
func (g *Geocoder) Resolve(ctx context.Context, name string) GeocodeResult {
	resp, err := g.api.Geocode(ctx, name)
	if err != nil {
		return GeocodeResult{Err: err}
	}
	if resp == nil || resp.Status != StatusOK {
		status := ""
		if resp != nil {
			status = resp.Status
		}
		return GeocodeResult{Err: fmt.Errorf("%w: status=%q", ErrNoGeocodeResult, status)}
	}
	if len(resp.Results) == 0 {
		return GeocodeResult{Err: fmt.Errorf("%w: empty results", ErrNoGeocodeResult)}
	}
	loc := resp.Results[0].Location
	if loc == nil {
		return GeocodeResult{Err: fmt.Errorf("%w: first result has no location", ErrNoGeocodeResult)}
	}

	g.logger.Debug("geocoded place name", map[string]interface{}{
		"name": name,
		"lat":  loc.Lat,
		"lng":  loc.Lng,
	})
	return GeocodeResult{Location: &LatLng{Lat: loc.Lat, Lng: loc.Lng}}
}
