// path: services/location.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

var errNoFix = errors.New("device returned no usable position")

// locate asks lp for permission and a fresh fix, bounded by timeout. A denied
// permission short-circuits before any position is read.
func locate(ctx context.Context, lp ports.LocationProvider, timeout time.Duration, accuracy ports.Accuracy) (geo.Point, error) {
	if lp == nil {
		return geo.Point{}, ErrLocationDenied
	}
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	granted, err := lp.RequestPermission(lctx)
	if err != nil {
		return geo.Point{}, locationFailure(err)
	}
	if !granted {
		return geo.Point{}, ErrLocationDenied
	}

	p, err := lp.CurrentPosition(lctx, accuracy)
	if err != nil {
		return geo.Point{}, locationFailure(err)
	}
	if p.IsZero() || !p.Valid() {
		return geo.Point{}, locationFailure(errNoFix)
	}
	return p, nil
}

func locationFailure(err error) *Error {
	return &Error{Kind: KindLocationUnavailable, Message: "could not determine your location, try again", Err: err}
}

func geofenceError(msg string, c geo.Check) *Error {
	return &Error{Kind: KindGeofence, Message: msg, DistanceMeters: c.RoundedDistance()}
}
