package station

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kelvins/geocoder"

	"github.com/rossv/rainfalldownload/internal/rainfall"
)

// Geocoder resolves a free-text place name into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (lat, lon float64, err error)
}

// DefaultNominatimURL is OpenStreetMap's public geocoding endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// Nominatim geocodes via OpenStreetMap. Nominatim requires a custom user
// agent with contact information.
type Nominatim struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewNominatim creates a Nominatim geocoder.
func NewNominatim(client *http.Client) *Nominatim {
	return &Nominatim{
		httpClient: client,
		baseURL:    DefaultNominatimURL,
		userAgent:  "rainfalldownload/1.0 (https://github.com/rossv/rainfalldownload)",
	}
}

// SetBaseURL overrides the endpoint (for testing against mock servers).
func (n *Nominatim) SetBaseURL(baseURL string) {
	n.baseURL = baseURL
}

// Geocode returns the coordinates of the first match for place.
func (n *Nominatim) Geocode(ctx context.Context, place string) (float64, float64, error) {
	params := url.Values{}
	params.Set("q", place)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", place, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, 0, rainfall.NewHTTPError(resp)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no geocode match for %q", place)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", place, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", place, err)
	}
	return lat, lon, nil
}

// Google geocodes via the Google Maps API. It needs an API key and exists
// for deployments where Nominatim's usage policy is a problem.
type Google struct{}

// NewGoogle configures the Google geocoder with the given API key.
func NewGoogle(apiKey string) *Google {
	geocoder.ApiKey = apiKey
	return &Google{}
}

// Geocode returns the coordinates for place.
func (g *Google) Geocode(_ context.Context, place string) (float64, float64, error) {
	location, err := geocoder.Geocoding(geocoder.Address{City: place})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", place, err)
	}
	return location.Latitude, location.Longitude, nil
}
