package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

const sample = `{
  "status": "OK",
  "results": [
    {
      "formatted_address": "Calle 1, Bogota, Colombia",
      "address_components": [
        {"long_name": "Calle 1", "types": ["route"]},
        {"long_name": "Bogota", "types": ["locality", "political"]},
        {"long_name": "Bogota D.C.", "types": ["administrative_area_level_1", "political"]},
        {"long_name": "Colombia", "types": ["country", "political"]}
      ]
    }
  ]
}`

func TestReverseGeocode(t *testing.T) {
	t.Parallel()

	var gotLatLng string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLatLng = r.URL.Query().Get("latlng")
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	c := NewGoogleClient("key").WithBaseURL(srv.URL)
	place, err := c.ReverseGeocode(context.Background(), geo.Point{Lat: 4.6097, Lng: -74.0817})
	if err != nil {
		t.Fatalf("reverse geocode: %v", err)
	}
	if gotLatLng != "4.609700,-74.081700" {
		t.Fatalf("unexpected latlng param %q", gotLatLng)
	}
	if place.City != "Bogota" || place.Region != "Bogota D.C." || place.Country != "Colombia" {
		t.Fatalf("unexpected place %+v", place)
	}
	if place.Label != "Bogota, Bogota D.C., Colombia" {
		t.Fatalf("unexpected label %q", place.Label)
	}
}

func TestReverseGeocodeWithoutKey(t *testing.T) {
	t.Parallel()

	_, err := NewGoogleClient("").ReverseGeocode(context.Background(), geo.Point{Lat: 1, Lng: 1})
	if !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestReverseGeocodeZeroResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	_, err := NewGoogleClient("key").WithBaseURL(srv.URL).ReverseGeocode(context.Background(), geo.Point{Lat: 1, Lng: 1})
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReverseGeocodeHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewGoogleClient("key").WithBaseURL(srv.URL).ReverseGeocode(context.Background(), geo.Point{Lat: 1, Lng: 1}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
