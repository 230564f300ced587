package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitesh/cafe_service/internal/logger"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	return NewClient(Options{
		APIKey:         "test-api-key",
		BaseURL:        server.URL + "/maps/api/place",
		GeocodeBaseURL: server.URL + "/maps/api",
		Timeout:        2 * time.Second,
	}, logger.NewTestLogger(t))
}

const textSearchBody = `{
  "status": "OK",
  "next_page_token": "tok-1",
  "results": [
    {
      "place_id": "p1",
      "name": "Octane Coffee",
      "formatted_address": "1009 Marietta St NW, Atlanta, GA 30318, USA",
      "geometry": {"location": {"lat": 33.7786, "lng": -84.4106}},
      "rating": 4.5,
      "user_ratings_total": 812,
      "formatted_phone_number": "(404) 815-9886",
      "website": "https://octanecoffee.com",
      "price_level": 2,
      "opening_hours": {"weekday_text": ["Monday: 7:00 AM – 6:00 PM"]},
      "types": ["cafe", "food"]
    },
    {
      "place_id": "p2",
      "name": "No Geometry Cafe",
      "price_level": "3"
    },
    {
      "place_id": "p3",
      "name": "Odd Price",
      "geometry": {"location": {"lat": 1, "lng": 2}},
      "price_level": null
    }
  ]
}`

func TestClient_TextSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/textsearch/json", r.URL.Path)
		assert.Equal(t, "coffee shops in Atlanta", r.URL.Query().Get("query"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(textSearchBody))
	}))
	defer server.Close()

	resp, err := newTestClient(t, server).TextSearch(context.Background(), "coffee shops in Atlanta")
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Len(t, resp.Results, 3)

	first := resp.Results[0]
	assert.Equal(t, "Octane Coffee", first.Name)
	require.NotNil(t, first.Location)
	assert.InDelta(t, 33.7786, first.Location.Lat, 1e-9)
	require.NotNil(t, first.PriceLevel)
	assert.Equal(t, 2, *first.PriceLevel)
	assert.Equal(t, 812, first.RatingCount)
	assert.Equal(t, "(404) 815-9886", first.Phone)
	assert.Equal(t, []string{"Monday: 7:00 AM – 6:00 PM"}, first.WeekdayText)

	second := resp.Results[1]
	assert.Nil(t, second.Location)
	require.NotNil(t, second.PriceLevel)
	assert.Equal(t, 3, *second.PriceLevel)
	assert.Empty(t, second.WeekdayText)

	assert.Nil(t, resp.Results[2].PriceLevel)
}

func TestClient_NearbySearch_Params(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "39.739236,-104.990251", q.Get("location"))
		assert.Equal(t, "20000", q.Get("radius"))
		assert.Equal(t, "cafe", q.Get("type"))
		assert.Equal(t, "test-api-key", q.Get("key"))
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	resp, err := newTestClient(t, server).NearbySearch(context.Background(),
		LatLng{Lat: 39.739236, Lng: -104.990251}, 20000, "cafe")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "ZERO_RESULTS", resp.Status)
}

func TestClient_Geocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "Denver", r.URL.Query().Get("address"))
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Denver, CO, USA","geometry":{"location":{"lat":39.7392,"lng":-104.9903}}}]}`))
	}))
	defer server.Close()

	resp, err := newTestClient(t, server).Geocode(context.Background(), "Denver")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.NotNil(t, resp.Results[0].Location)
	assert.InDelta(t, -104.9903, resp.Results[0].Location.Lng, 1e-9)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("boom"))
			},
			wantErr: ErrProviderUnavailable,
		},
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			wantErr: ErrProviderUnavailable,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status": "OK", "results": [`))
			},
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestClient(t, server).TextSearch(context.Background(), "anything")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server)
	server.Close()

	_, err := client.TextSearch(context.Background(), "coffee")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","results":[]}`))
	}))
	defer server.Close()

	client := NewClient(Options{
		APIKey:    "k",
		BaseURL:   server.URL,
		RateLimit: time.Hour,
	}, logger.NewNoOpLogger())

	_, err := client.TextSearch(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.TextSearch(ctx, "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
