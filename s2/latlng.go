package s2

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// LatLng represents a point on the unit sphere as a pair of angles.
type LatLng struct {
	Lat, Lng s1.Angle
}

// LatLngFromDegrees returns a LatLng for the coordinates given in degrees.
func LatLngFromDegrees(lat, lng float64) LatLng {
	return LatLng{s1.Angle(lat) * s1.Degree, s1.Angle(lng) * s1.Degree}
}

// LatLngFromRadians returns a LatLng for the coordinates given in radians.
func LatLngFromRadians(lat, lng float64) LatLng {
	return LatLng{s1.Angle(lat) * s1.Radian, s1.Angle(lng) * s1.Radian}
}

// LatLngFromPoint returns the LatLng for the given Point.
func LatLngFromPoint(p Point) LatLng {
	return LatLng{latitude(p), longitude(p)}
}

// IsValid reports whether the LatLng is normalized, with Lat in [-π/2,π/2]
// and Lng in [-π,π].
func (ll LatLng) IsValid() bool {
	return math.Abs(ll.Lat.Radians()) <= M_PI_2 && math.Abs(ll.Lng.Radians()) <= math.Pi
}

// Normalized returns the normalized version of the LatLng, with Lat clamped
// to [-π/2,π/2] and Lng wrapped in [-π,π].
func (ll LatLng) Normalized() LatLng {
	lat := ll.Lat
	if lat > s1.Angle(M_PI_2) {
		lat = s1.Angle(M_PI_2)
	} else if lat < -s1.Angle(M_PI_2) {
		lat = -s1.Angle(M_PI_2)
	}
	lng := s1.Angle(math.Remainder(ll.Lng.Radians(), 2*math.Pi))
	return LatLng{lat, lng}
}

func (ll LatLng) String() string {
	return fmt.Sprintf("[%f, %f]", ll.Lat.Degrees(), ll.Lng.Degrees())
}

// PointFromLatLng returns an Point for the given LatLng.
func PointFromLatLng(ll LatLng) Point {
	phi := ll.Lat.Radians()
	theta := ll.Lng.Radians()
	cosphi := math.Cos(phi)
	return Point{r3.Vector{
		X: math.Cos(theta) * cosphi,
		Y: math.Sin(theta) * cosphi,
		Z: math.Sin(phi),
	}}
}

func latitude(p Point) s1.Angle {
	return s1.Angle(math.Atan2(p.Z, math.Sqrt(p.X*p.X+p.Y*p.Y)))
}

func longitude(p Point) s1.Angle {
	return s1.Angle(math.Atan2(p.Y, p.X))
}
