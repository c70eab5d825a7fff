package s2

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
)

var (
	validRectLatRange = r1.Interval{Lo: -M_PI_2, Hi: M_PI_2}
	validRectLngRange = s1.FullInterval()
)

// Rect represents a closed latitude-longitude rectangle. It is capable of
// representing the empty and full rectangles as well as single points.
// The latitude-longitude space has the topology of a cylinder: longitudes
// wrap around at ±π, so Lng is an s1.Interval while Lat is a plain
// r1.Interval clamped to [-π/2,π/2].
type Rect struct {
	Lat r1.Interval
	Lng s1.Interval
}

// EmptyRect returns the empty rectangle.
func EmptyRect() Rect { return Rect{r1.EmptyInterval(), s1.EmptyInterval()} }

// FullRect returns the full rectangle.
func FullRect() Rect { return Rect{validRectLatRange, validRectLngRange} }

// RectFromLatLng constructs a rectangle containing a single point.
func RectFromLatLng(ll LatLng) Rect {
	return Rect{
		Lat: r1.Interval{Lo: ll.Lat.Radians(), Hi: ll.Lat.Radians()},
		Lng: s1.Interval{Lo: ll.Lng.Radians(), Hi: ll.Lng.Radians()},
	}
}

// IsValid reports whether the rectangle is valid: the latitude bounds lie
// within [-π/2,π/2], and if either latitude or longitude is empty then both
// are.
func (r Rect) IsValid() bool {
	return math.Abs(r.Lat.Lo) <= M_PI_2 &&
		math.Abs(r.Lat.Hi) <= M_PI_2 &&
		r.Lng.IsValid() &&
		r.Lat.IsEmpty() == r.Lng.IsEmpty()
}

// IsEmpty reports whether the rectangle is empty.
func (r Rect) IsEmpty() bool { return r.Lat.IsEmpty() }

// IsFull reports whether the rectangle is the full sphere.
func (r Rect) IsFull() bool {
	return r.Lat == validRectLatRange && r.Lng.IsFull()
}

// Lo returns the lower corner of the rectangle (minimum latitude and
// longitude).
func (r Rect) Lo() LatLng {
	return LatLng{s1.Angle(r.Lat.Lo), s1.Angle(r.Lng.Lo)}
}

// Hi returns the upper corner of the rectangle (maximum latitude and
// longitude).
func (r Rect) Hi() LatLng {
	return LatLng{s1.Angle(r.Lat.Hi), s1.Angle(r.Lng.Hi)}
}

// AddPoint increases the size of the rectangle to include the given point.
func (r Rect) AddPoint(ll LatLng) Rect {
	if !ll.IsValid() {
		return r
	}
	return Rect{
		Lat: r.Lat.AddPoint(ll.Lat.Radians()),
		Lng: r.Lng.AddPoint(ll.Lng.Radians()),
	}
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Lat: r.Lat.Union(other.Lat),
		Lng: r.Lng.Union(other.Lng),
	}
}

// Intersection returns the smallest rectangle containing the intersection of
// the two rectangles. Note that the region of intersection may consist of
// two disjoint rectangles, in which case a single rectangle spanning both of
// them is returned.
func (r Rect) Intersection(other Rect) Rect {
	lat := r.Lat.Intersection(other.Lat)
	lng := r.Lng.Intersection(other.Lng)
	if lat.IsEmpty() || lng.IsEmpty() {
		return EmptyRect()
	}
	return Rect{lat, lng}
}

// ContainsLatLng reports whether the rectangle contains the given point.
func (r Rect) ContainsLatLng(ll LatLng) bool {
	return r.Lat.Contains(ll.Lat.Radians()) && r.Lng.Contains(ll.Lng.Radians())
}

// ContainsPoint reports whether the rectangle contains the given point,
// which must be unit length.
func (r Rect) ContainsPoint(p Point) bool {
	return r.ContainsLatLng(LatLngFromPoint(p))
}

// Contains reports whether this rectangle contains the other.
func (r Rect) Contains(other Rect) bool {
	return r.Lat.ContainsInterval(other.Lat) && r.Lng.ContainsInterval(other.Lng)
}

// Intersects reports whether the two rectangles have any points in common.
func (r Rect) Intersects(other Rect) bool {
	return r.Lat.Intersects(other.Lat) && r.Lng.Intersects(other.Lng)
}

// ApproxEqual reports whether the latitude and longitude intervals of the
// two rectangles are the same up to a small tolerance.
func (r Rect) ApproxEqual(other Rect) bool {
	return r.Lat.ApproxEqual(other.Lat) && r.Lng.ApproxEqual(other.Lng)
}

func (r Rect) String() string {
	return fmt.Sprintf("[Lo%v, Hi%v]", r.Lo(), r.Hi())
}
