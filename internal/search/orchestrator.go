package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nitesh/cafe_service/internal/logger"
	"github.com/nitesh/cafe_service/internal/metrics"
	"github.com/nitesh/cafe_service/internal/places"
	"github.com/nitesh/cafe_service/pkg/models"
)

const (
	// CityQueryPrefix marks queries eligible for nearby-search augmentation.
	CityQueryPrefix = "coffee shops in "
	// AugmentBelow is the result count under which augmentation is attempted.
	AugmentBelow = 20
	// NearbyRadiusMeters and NearbyPlaceType shape the augmentation call.
	NearbyRadiusMeters = 20000
	NearbyPlaceType    = "cafe"
)

// Provider is the place-search API the orchestrator drives.
type Provider interface {
	TextSearch(ctx context.Context, query string) (*places.SearchResponse, error)
	NearbySearch(ctx context.Context, center places.LatLng, radiusMeters int, placeType string) (*places.SearchResponse, error)
}

// Geocoder resolves a place name without ever failing.
type Geocoder interface {
	Resolve(ctx context.Context, name string) places.GeocodeResult
}

// Normalizer maps one provider place onto a cafe record.
type Normalizer interface {
	Normalize(p places.Place) (*models.Cafe, error)
}

// Orchestrator runs a provider query end to end: text search, optional
// nearby augmentation for "coffee shops in <City>" queries, dedup, normalize.
// It keeps no state between calls.
type Orchestrator struct {
	provider   Provider
	geocoder   Geocoder
	normalizer Normalizer
	logger     logger.Logger
}

func NewOrchestrator(provider Provider, geocoder Geocoder, normalizer Normalizer, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		provider:   provider,
		geocoder:   geocoder,
		normalizer: normalizer,
		logger:     log.With(map[string]interface{}{"component": "search-orchestrator"}),
	}
}

// Search returns the normalized, deduplicated cafes for query. Only a
// transport failure of the primary text search is returned as an error;
// everything else degrades to fewer results.
func (o *Orchestrator) Search(ctx context.Context, query string) ([]*models.Cafe, error) {
	cafes := make([]*models.Cafe, 0)

	resp, err := o.provider.TextSearch(ctx, query)
	switch {
	case errors.Is(err, places.ErrMalformedResponse):
		o.logger.Warn("text search response malformed, treating as empty", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
	case err != nil:
		return nil, fmt.Errorf("text search %q: %w", query, err)
	case resp.OK():
		cafes = o.merge(cafes, resp.Results)
	default:
		o.logger.Info("text search returned no results", map[string]interface{}{
			"query":  query,
			"status": resp.Status,
		})
	}

	primary := len(cafes)
	if city, ok := cityFromQuery(query); ok && primary < AugmentBelow {
		cafes = o.augment(ctx, city, cafes)
	}

	o.logger.Info("search completed", map[string]interface{}{
		"query":   query,
		"primary": primary,
		"total":   len(cafes),
	})
	return cafes, nil
}

// augment geocodes city and merges a nearby search around it. Failures are
// logged and leave cafes unchanged.
func (o *Orchestrator) augment(ctx context.Context, city string, cafes []*models.Cafe) []*models.Cafe {
	geo := o.geocoder.Resolve(ctx, city)
	if !geo.Found() {
		metrics.SearchAugmentations.WithLabelValues(metrics.OutcomeSkipped).Inc()
		o.logger.Warn("geocode failed, skipping nearby search", map[string]interface{}{
			"city":  city,
			"error": errString(geo.Err),
		})
		return cafes
	}

	resp, err := o.provider.NearbySearch(ctx, *geo.Location, NearbyRadiusMeters, NearbyPlaceType)
	if err != nil {
		metrics.SearchAugmentations.WithLabelValues(metrics.OutcomeUnavailable).Inc()
		o.logger.Warn("nearby search failed", map[string]interface{}{
			"city":  city,
			"error": err.Error(),
		})
		return cafes
	}
	if !resp.OK() {
		metrics.SearchAugmentations.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return cafes
	}

	metrics.SearchAugmentations.WithLabelValues(metrics.OutcomeOK).Inc()
	return o.merge(cafes, resp.Results)
}

// merge normalizes results and appends the ones not already present.
func (o *Orchestrator) merge(cafes []*models.Cafe, results []places.Place) []*models.Cafe {
	for _, p := range results {
		cafe, err := o.normalizer.Normalize(p)
		if err != nil {
			o.logger.Debug("skipping place", map[string]interface{}{
				"placeId": p.PlaceID,
				"name":    p.Name,
				"error":   err.Error(),
			})
			continue
		}
		if containsCafe(cafes, cafe) {
			continue
		}
		cafes = append(cafes, cafe)
	}
	return cafes
}

// cityFromQuery extracts <City> from "coffee shops in <City>".
func cityFromQuery(query string) (string, bool) {
	if !strings.HasPrefix(query, CityQueryPrefix) {
		return "", false
	}
	city := strings.TrimSpace(strings.TrimPrefix(query, CityQueryPrefix))
	return city, city != ""
}

// containsCafe matches on case-insensitive name and street address. Records
// missing either field never match.
func containsCafe(cafes []*models.Cafe, candidate *models.Cafe) bool {
	if candidate.Name == "" || candidate.Address == "" {
		return false
	}
	for _, existing := range cafes {
		if existing.Name == "" || existing.Address == "" {
			continue
		}
		if strings.EqualFold(existing.Name, candidate.Name) && strings.EqualFold(existing.Address, candidate.Address) {
			return true
		}
	}
	return false
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
