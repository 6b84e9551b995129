// path: controllers/location.go
package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

var errNoDeviceFix = errors.New("request carries no device position")

// deviceLocation is the acting device's location as reported with the request.
// The client asks the OS for permission and a fix; the API re-checks both.
// Permission counts as granted only when the client says so explicitly.
type deviceLocation struct {
	permission string
	lat, lng   string
}

func locationFromRequest(c *fiber.Ctx) *deviceLocation {
	return &deviceLocation{
		permission: strings.ToLower(strings.TrimSpace(c.FormValue("location_permission"))),
		lat:        c.FormValue("device_lat"),
		lng:        c.FormValue("device_lng"),
	}
}

func (d *deviceLocation) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	switch d.permission {
	case "granted", "allow", "allowed", "true", "1", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (d *deviceLocation) CurrentPosition(ctx context.Context, _ ports.Accuracy) (geo.Point, error) {
	if err := ctx.Err(); err != nil {
		return geo.Point{}, err
	}
	if strings.TrimSpace(d.lat) == "" || strings.TrimSpace(d.lng) == "" {
		return geo.Point{}, errNoDeviceFix
	}
	lat, err := parseCoord(d.lat, "device_lat")
	if err != nil {
		return geo.Point{}, err
	}
	lng, err := parseCoord(d.lng, "device_lng")
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}

var _ ports.LocationProvider = (*deviceLocation)(nil)
