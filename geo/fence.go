// path: geo/fence.go
package geo

import "math"

// Fence is a circular admission zone around Center.
type Fence struct {
	Center  Point
	RadiusM float64
}

// Check is the result of testing a point against a Fence.
type Check struct {
	DistanceM float64
	Inside    bool
}

// RoundedDistance is the distance rounded to the nearest meter, as shown to users.
func (c Check) RoundedDistance() int {
	return int(math.Round(c.DistanceM))
}

func (f Fence) Check(p Point) Check {
	d := DistanceMeters(f.Center, p)
	return Check{DistanceM: d, Inside: d <= f.RadiusM}
}

func (f Fence) Contains(p Point) bool { return f.Check(p).Inside }
