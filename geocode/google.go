// path: geocode/google.go
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient reverse-geocodes through the Google Geocoding API.
type GoogleClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGoogleClient(apiKey string) *GoogleClient {
	return &GoogleClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func (c *GoogleClient) WithBaseURL(u string) *GoogleClient {
	c.baseURL = u
	return c
}

type addressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type geocodeResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []addressComponent `json:"address_components"`
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

func (c *GoogleClient) ReverseGeocode(ctx context.Context, p geo.Point) (ports.Place, error) {
	if c.apiKey == "" {
		return ports.Place{}, fmt.Errorf("geocoder api key not set: %w", ports.ErrUnavailable)
	}

	params := url.Values{}
	params.Add("latlng", fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng))
	params.Add("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return ports.Place{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Place{}, fmt.Errorf("failed to call geocoding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ports.Place{}, fmt.Errorf("geocoding api error (status %d): %s", resp.StatusCode, string(body))
	}

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ports.Place{}, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	switch out.Status {
	case "OK":
	case "ZERO_RESULTS":
		return ports.Place{}, fmt.Errorf("no address at %s: %w", p, ports.ErrNotFound)
	default:
		return ports.Place{}, fmt.Errorf("geocoding api status %s: %s", out.Status, out.ErrorMessage)
	}
	if len(out.Results) == 0 {
		return ports.Place{}, fmt.Errorf("no address at %s: %w", p, ports.ErrNotFound)
	}
	return placeFrom(out.Results), nil
}

// placeFrom picks locality, region and country from the most specific result
// that carries them.
func placeFrom(results []geocodeResult) ports.Place {
	var place ports.Place
	for _, r := range results {
		for _, comp := range r.AddressComponents {
			switch {
			case place.City == "" && (hasType(comp.Types, "locality") || hasType(comp.Types, "postal_town")):
				place.City = comp.LongName
			case place.Region == "" && hasType(comp.Types, "administrative_area_level_1"):
				place.Region = comp.LongName
			case place.Country == "" && hasType(comp.Types, "country"):
				place.Country = comp.LongName
			}
		}
	}
	parts := make([]string, 0, 3)
	for _, s := range []string{place.City, place.Region, place.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		place.Label = strings.Join(parts, ", ")
	} else {
		place.Label = results[0].FormattedAddress
	}
	return place
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

var _ ports.Geocoder = (*GoogleClient)(nil)
