// Package geocode calls the external geocoding service with bounded retries.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"CityWatch/internal/config"
	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

// Client wraps a Nominatim-style search endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	retry      retrypolicy.RetryPolicy[*http.Response]
}

var _ ports.Geocoder = (*Client)(nil)

// NewClient builds a geocoding client. Timeouts and connection failures are
// retried up to cfg.MaxRetries times with growing delay; HTTP error statuses
// are not retried.
func NewClient(cfg config.GeocoderConfig) *Client {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 2
	}
	retry := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(500*time.Millisecond, time.Second).
		WithMaxRetries(retries).
		HandleIf(func(resp *http.Response, err error) bool {
			return err != nil
		}).
		Build()

	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		retry:      retry,
	}
}

// nominatimHit is one search result; the service reports coordinates as
// strings.
type nominatimHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves an address string; an empty result set is a miss, not an
// error.
func (c *Client) Geocode(ctx context.Context, address string) (domain.GeoPoint, bool, error) {
	if c.endpoint == "" {
		return domain.GeoPoint{}, false, fmt.Errorf("geocoder endpoint not configured")
	}

	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	searchURL := c.endpoint + "/search?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return domain.GeoPoint{}, false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "CityWatch/1.0")

	resp, err := failsafe.With(c.retry).WithContext(ctx).Get(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if err != nil {
		return domain.GeoPoint{}, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeoPoint{}, false, fmt.Errorf("geocoder returned %s", resp.Status)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return domain.GeoPoint{}, false, fmt.Errorf("decode response: %w", err)
	}
	if len(hits) == 0 {
		return domain.GeoPoint{}, false, nil
	}

	lat, latErr := strconv.ParseFloat(hits[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(hits[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return domain.GeoPoint{}, false, fmt.Errorf("malformed coordinates %q/%q", hits[0].Lat, hits[0].Lon)
	}

	return domain.GeoPoint{Lat: lat, Lon: lon}, true, nil
}
