package s2

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// This file implements the cube-to-sphere projection used by CellID.
//
// Each face of the cube carries two coordinate systems:
//
//   (s,t)  coordinates in [0,1]x[0,1]; the discretized form (i,j) subdivides
//          each axis into 2**maxLevel slots, so every leaf cell is one (i,j).
//   (u,v)  coordinates in [-1,1]x[-1,1] on the cube face itself, obtained
//          from (s,t) by a non-linear transform chosen to make cell areas
//          more uniform after projection onto the sphere.
//
// We use the quadratic transform, which is a good compromise between the
// cost of the tangent transform and the area distortion of the linear one.
// All the metric constants in metric.go assume this choice.

// stToUV converts an s or t value in [0,1] to the corresponding u or v value.
// This is a piecewise quadratic that is an exact inverse of uvToST.
func stToUV(s float64) float64 {
	if s >= 0.5 {
		return (1 / 3.) * (4*s*s - 1)
	}
	return (1 / 3.) * (1 - 4*(1-s)*(1-s))
}

// uvToST is the inverse of stToUV. Note that it is not always true that
// uvToST(stToUV(x)) == x due to numerical errors.
func uvToST(u float64) float64 {
	if u >= 0 {
		return 0.5 * math.Sqrt(1+3*u)
	}
	return 1 - 0.5*math.Sqrt(1-3*u)
}

// stToIJ converts an s or t value in [0,1] to the leaf-cell coordinate along
// the same axis, clamped to the valid range of cells.
func stToIJ(s float64) int {
	return max(0, min(maxSize-1, int(math.Floor(maxSize*s))))
}

// ijToSTMin converts the i or j coordinate of a cell to the minimum
// corresponding s or t value contained by that cell. The cell covers the
// half-open range [ijToSTMin(i), ijToSTMin(i+1)).
func ijToSTMin(i int) float64 {
	return float64(i) / float64(maxSize)
}

// sizeIJ returns the edge length in (i,j) units of cells at the given level.
func sizeIJ(level int) int {
	return 1 << uint(maxLevel-level)
}

// ijLevelToBoundUV returns the (u,v) rectangle covered by the cell at the
// given level containing leaf coordinates (i,j).
func ijLevelToBoundUV(i, j, level int) r2.Rect {
	cellSize := sizeIJ(level)
	xLo := i & -cellSize
	yLo := j & -cellSize
	return r2.Rect{
		X: r1.Interval{
			Lo: stToUV(ijToSTMin(xLo)),
			Hi: stToUV(ijToSTMin(xLo + cellSize)),
		},
		Y: r1.Interval{
			Lo: stToUV(ijToSTMin(yLo)),
			Hi: stToUV(ijToSTMin(yLo + cellSize)),
		},
	}
}

// face returns the face containing the given direction vector. For points on
// the boundary between faces, the result is arbitrary but deterministic.
func face(r r3.Vector) int {
	f := r.LargestComponent()
	switch {
	case f == r3.XAxis && r.X < 0:
		f += 3
	case f == r3.YAxis && r.Y < 0:
		f += 3
	case f == r3.ZAxis && r.Z < 0:
		f += 3
	}
	return int(f)
}

// validFaceXYZToUV computes the (u,v) coordinates of the projection of r onto
// the given face. Requires that r has a positive dot product with the face
// normal, i.e. the point actually projects onto this face.
func validFaceXYZToUV(face int, r r3.Vector) (float64, float64) {
	switch face {
	case 0:
		return r.Y / r.X, r.Z / r.X
	case 1:
		return -r.X / r.Y, r.Z / r.Y
	case 2:
		return -r.X / r.Z, -r.Y / r.Z
	case 3:
		return r.Z / r.X, r.Y / r.X
	case 4:
		return r.Z / r.Y, -r.X / r.Y
	}
	return -r.Y / r.Z, -r.X / r.Z
}

// xyzToFaceUV converts a direction vector (not necessarily unit length) to
// (face, u, v) coordinates.
func xyzToFaceUV(r r3.Vector) (f int, u, v float64) {
	f = face(r)
	u, v = validFaceXYZToUV(f, r)
	return f, u, v
}

// faceXYZToUV returns the u and v values (which may lie outside the range
// [-1,1]) if the dot product of the point p with the given face normal is
// positive, along with ok set to true. If the dot product is not positive,
// ok is false and u and v are zero.
func faceXYZToUV(face int, p Point) (u, v float64, ok bool) {
	switch face {
	case 0:
		if p.X <= 0 {
			return 0, 0, false
		}
	case 1:
		if p.Y <= 0 {
			return 0, 0, false
		}
	case 2:
		if p.Z <= 0 {
			return 0, 0, false
		}
	case 3:
		if p.X >= 0 {
			return 0, 0, false
		}
	case 4:
		if p.Y >= 0 {
			return 0, 0, false
		}
	default:
		if p.Z >= 0 {
			return 0, 0, false
		}
	}
	u, v = validFaceXYZToUV(face, p.Vector)
	return u, v, true
}

// faceUVToXYZ turns face and (u,v) coordinates into an unnormalized
// direction vector.
func faceUVToXYZ(face int, u, v float64) r3.Vector {
	switch face {
	case 0:
		return r3.Vector{X: 1, Y: u, Z: v}
	case 1:
		return r3.Vector{X: -u, Y: 1, Z: v}
	case 2:
		return r3.Vector{X: -u, Y: -v, Z: 1}
	case 3:
		return r3.Vector{X: -1, Y: -v, Z: -u}
	case 4:
		return r3.Vector{X: v, Y: -1, Z: -u}
	}
	return r3.Vector{X: v, Y: u, Z: -1}
}

// faceNorm returns the outward-facing normal of the given face, which is
// also the direction of the face's center.
func faceNorm(face int) r3.Vector {
	return faceUVToXYZ(face, 0, 0)
}

// uAxis returns the u-axis for the given face.
func uAxis(face int) r3.Vector {
	switch face {
	case 0:
		return r3.Vector{X: 0, Y: 1, Z: 0}
	case 1, 2:
		return r3.Vector{X: -1, Y: 0, Z: 0}
	case 3, 4:
		return r3.Vector{X: 0, Y: 0, Z: -1}
	}
	return r3.Vector{X: 0, Y: 1, Z: 0}
}

// vAxis returns the v-axis for the given face.
func vAxis(face int) r3.Vector {
	switch face {
	case 0, 1:
		return r3.Vector{X: 0, Y: 0, Z: 1}
	case 2, 3:
		return r3.Vector{X: 0, Y: -1, Z: 0}
	}
	return r3.Vector{X: 1, Y: 0, Z: 0}
}

// uNorm returns the right-handed normal (not necessarily unit length) of the
// plane through the u=0 axis rotated to pass through the given u value.
func uNorm(face int, u float64) r3.Vector {
	switch face {
	case 0:
		return r3.Vector{X: u, Y: -1, Z: 0}
	case 1:
		return r3.Vector{X: 1, Y: u, Z: 0}
	case 2:
		return r3.Vector{X: 1, Y: 0, Z: u}
	case 3:
		return r3.Vector{X: -u, Y: 0, Z: 1}
	case 4:
		return r3.Vector{X: 0, Y: -u, Z: 1}
	}
	return r3.Vector{X: 0, Y: -1, Z: -u}
}

// vNorm returns the right-handed normal (not necessarily unit length) of the
// plane through the v=0 axis rotated to pass through the given v value.
func vNorm(face int, v float64) r3.Vector {
	switch face {
	case 0:
		return r3.Vector{X: -v, Y: 0, Z: 1}
	case 1:
		return r3.Vector{X: 0, Y: -v, Z: 1}
	case 2:
		return r3.Vector{X: 0, Y: -1, Z: -v}
	case 3:
		return r3.Vector{X: v, Y: -1, Z: 0}
	case 4:
		return r3.Vector{X: 1, Y: v, Z: 0}
	}
	return r3.Vector{X: 1, Y: 0, Z: v}
}
