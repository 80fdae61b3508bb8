package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CityWatch/internal/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.GeocoderConfig{
		Endpoint:       serverURL,
		TimeoutSeconds: 2,
		MaxRetries:     2,
	})
}

func TestGeocodeHit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ul. Lenina 15, Nizhnevartovsk", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[{"lat": "60.9344", "lon": "76.5531"}]`))
	}))
	defer server.Close()

	pt, found, err := newTestClient(server.URL).Geocode(context.Background(), "ul. Lenina 15, Nizhnevartovsk")
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 60.9344, pt.Lat, 1e-9)
	assert.InDelta(t, 76.5531, pt.Lon, 1e-9)
}

func TestGeocodeMissIsNotAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, found, err := newTestClient(server.URL).Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGeocodeErrorStatusNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, _, err := newTestClient(server.URL).Geocode(context.Background(), "anywhere")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "HTTP error statuses must not be retried")
}
