// Package geo provides geocoding and driving-distance lookups backed by the
// Google Maps web service APIs.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// metersPerMile converts Distance Matrix meter values to miles.
const metersPerMile = 1609.34

// DefaultBaseURL is the Google Maps web service root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

// Place is a geocoded address.
type Place struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
}

// Calculator resolves addresses to coordinates and computes driving
// distances between points.
//
// Geocode returns (nil, nil) when the address resolves to no place; a
// non-nil error means the lookup itself failed.
type Calculator interface {
	Geocode(ctx context.Context, address string) (*Place, error)
	DrivingDistanceMiles(ctx context.Context, originLat, originLng, destLat, destLng float64) (float64, error)
}

// Opts holds configuration options for the Google Maps client.
type Opts struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Option defines a configuration option for the Google Maps client.
type Option func(*Opts)

// WithAPIKey sets the Google Maps API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL overrides the API root. Used by tests.
func WithBaseURL(base string) Option {
	return func(o *Opts) { o.BaseURL = base }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = client }
}

// GoogleMapsCalculator calls the Geocoding and Distance Matrix REST APIs.
type GoogleMapsCalculator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGoogleMapsCalculator creates a calculator from options. The API key is
// required.
func NewGoogleMapsCalculator(opts ...Option) (*GoogleMapsCalculator, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google maps API key not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleMapsCalculator{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, client: cfg.HTTPClient}, nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address to coordinates using the Geocoding API. An
// address with no results returns (nil, nil).
func (g *GoogleMapsCalculator) Geocode(ctx context.Context, address string) (*Place, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	var resp geocodeResponse
	if err := g.getJSON(ctx, g.baseURL+"/geocode/json?"+params.Encode(), &resp); err != nil {
		slog.Error("GoogleMapsCalculator.Geocode: request failed", "error", err)
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}

	if resp.Status == "ZERO_RESULTS" || len(resp.Results) == 0 {
		slog.Debug("GoogleMapsCalculator.Geocode: no results", "address", address)
		return nil, nil
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("geocode returned status %s", resp.Status)
	}

	first := resp.Results[0]
	return &Place{
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}

type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// DrivingDistanceMiles computes the driving distance between two points using
// the Distance Matrix API. The API reports meters; the result is converted to
// miles.
func (g *GoogleMapsCalculator) DrivingDistanceMiles(ctx context.Context, originLat, originLng, destLat, destLng float64) (float64, error) {
	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f", originLat, originLng))
	params.Set("destinations", fmt.Sprintf("%f,%f", destLat, destLng))
	params.Set("mode", "driving")
	params.Set("units", "imperial")
	params.Set("key", g.apiKey)

	var resp distanceMatrixResponse
	if err := g.getJSON(ctx, g.baseURL+"/distancematrix/json?"+params.Encode(), &resp); err != nil {
		slog.Error("GoogleMapsCalculator.DrivingDistanceMiles: request failed", "error", err)
		return 0, fmt.Errorf("distance matrix request failed: %w", err)
	}

	if resp.Status != "OK" {
		return 0, fmt.Errorf("distance matrix returned status %s", resp.Status)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("distance matrix returned no elements")
	}
	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, fmt.Errorf("distance matrix element status %s", element.Status)
	}

	return element.Distance.Value / metersPerMile, nil
}

func (g *GoogleMapsCalculator) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected HTTP status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
