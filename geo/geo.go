// path: geo/geo.go
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by every distance computation.
const EarthRadiusMeters = 6371000

const (
	// ReportSelectionRadiusM bounds how far from the reporter's device a new report may be pinned.
	ReportSelectionRadiusM = 30.0
	// CleanupRadiusM bounds how far from a report a cleaner may confirm a cleanup.
	CleanupRadiusM = 100.0
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

func (p Point) IsZero() bool { return p.Lat == 0 && p.Lng == 0 }

func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p Point) String() string { return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng) }

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h just outside [0,1] for coincident or antipodal points
	h = math.Min(1, math.Max(0, h))
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether b lies inside the circle of radiusM around a.
// A point exactly on the boundary is inside.
func WithinRadius(a, b Point, radiusM float64) bool {
	return DistanceMeters(a, b) <= radiusM
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
