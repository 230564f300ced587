package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nitesh/cafe_service/internal/logger"
	"github.com/nitesh/cafe_service/internal/metrics"
)

// Endpoint names, used for metrics and logs.
const (
	EndpointTextSearch   = "textsearch"
	EndpointNearbySearch = "nearbysearch"
	EndpointGeocode      = "geocode"
)

var (
	// ErrProviderUnavailable covers transport failures and non-2xx replies.
	ErrProviderUnavailable = errors.New("PROVIDER_UNAVAILABLE")
	// ErrMalformedResponse means the provider answered but the body could not be decoded.
	ErrMalformedResponse = errors.New("PROVIDER_MALFORMED_RESPONSE")
)

// Options configures a Client.
type Options struct {
	APIKey         string
	BaseURL        string // e.g. https://maps.googleapis.com/maps/api/place
	GeocodeBaseURL string // e.g. https://maps.googleapis.com/maps/api
	Timeout        time.Duration
	// RateLimit is the minimum spacing between outbound requests. Zero disables limiting.
	RateLimit time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the place-search provider. It is safe for concurrent use.
type Client struct {
	apiKey         string
	baseURL        string
	geocodeBaseURL string
	hc             *http.Client
	limiter        *rate.Limiter
	logger         logger.Logger
}

// NewClient creates a new client. If opts.HTTPClient is nil, a default with
// opts.Timeout (10s when unset) is used.
func NewClient(opts Options, log logger.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RateLimit), 1)
	}

	return &Client{
		apiKey:         opts.APIKey,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		geocodeBaseURL: strings.TrimRight(opts.GeocodeBaseURL, "/"),
		hc:             hc,
		limiter:        limiter,
		logger:         log.With(map[string]interface{}{"component": "places-client"}),
	}
}

// TextSearch runs a free-text place search.
func (c *Client) TextSearch(ctx context.Context, query string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)

	var wire wireSearchResponse
	if err := c.get(ctx, EndpointTextSearch, c.baseURL+"/textsearch/json", params, &wire); err != nil {
		return nil, err
	}
	resp := wire.flatten()
	c.observe(EndpointTextSearch, resp.OK())
	return resp, nil
}

// NearbySearch finds places of placeType within radiusMeters of center.
func (c *Client) NearbySearch(ctx context.Context, center LatLng, radiusMeters int, placeType string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%.6f,%.6f", center.Lat, center.Lng))
	params.Set("radius", strconv.Itoa(radiusMeters))
	params.Set("type", placeType)
	params.Set("key", c.apiKey)

	var wire wireSearchResponse
	if err := c.get(ctx, EndpointNearbySearch, c.baseURL+"/nearbysearch/json", params, &wire); err != nil {
		return nil, err
	}
	resp := wire.flatten()
	c.observe(EndpointNearbySearch, resp.OK())
	return resp, nil
}

// Geocode resolves a free-text address or place name.
func (c *Client) Geocode(ctx context.Context, address string) (*GeocodeResponse, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	var wire wireGeocodeResponse
	if err := c.get(ctx, EndpointGeocode, c.geocodeBaseURL+"/geocode/json", params, &wire); err != nil {
		return nil, err
	}
	resp := wire.flatten()
	c.observe(EndpointGeocode, resp.Status == StatusOK && len(resp.Results) > 0)
	return resp, nil
}

// get issues one GET and decodes the JSON body into out. The request URL is
// never logged since it carries the API key.
func (c *Client) get(ctx context.Context, endpoint, base string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.PlacesRequests.WithLabelValues(endpoint, metrics.OutcomeUnavailable).Inc()
		return fmt.Errorf("%w: %s rate limit wait: %w", ErrProviderUnavailable, endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %s new request: %w", ErrProviderUnavailable, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	lat := time.Since(start)
	metrics.PlacesRequestDuration.WithLabelValues(endpoint).Observe(lat.Seconds())
	if err != nil {
		metrics.PlacesRequests.WithLabelValues(endpoint, metrics.OutcomeUnavailable).Inc()
		c.logger.Warn("provider request failed", map[string]interface{}{
			"endpoint": endpoint,
			"latency":  lat.String(),
			"error":    err.Error(),
		})
		return fmt.Errorf("%w: %s request: %w", ErrProviderUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("provider request", map[string]interface{}{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"latency":  lat.String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// include a bounded body for debugging
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.PlacesRequests.WithLabelValues(endpoint, metrics.OutcomeUnavailable).Inc()
		return fmt.Errorf("%w: %s status=%d body=%s", ErrProviderUnavailable, endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.PlacesRequests.WithLabelValues(endpoint, metrics.OutcomeMalformed).Inc()
		return fmt.Errorf("%w: %s decode: %w", ErrMalformedResponse, endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint string, ok bool) {
	outcome := metrics.OutcomeOK
	if !ok {
		outcome = metrics.OutcomeEmpty
	}
	metrics.PlacesRequests.WithLabelValues(endpoint, outcome).Inc()
}
