package s2

import (
	"bytes"
	"fmt"
	"math"
	"math/bits"

	"github.com/golang/geo/r3"
)

// CellID uniquely identifies a cell in the S2 cell decomposition. The most
// significant 3 bits encode the face number (0-5). The remaining 61 bits
// encode the position of the center of this cell along the Hilbert curve on
// that face, discretized at the leaf level, followed by a single one bit.
// The number of trailing zeros after that bit determines the cell's level:
// a cell at level k has 2*(maxLevel-k) trailing zeros after its lowest set
// bit, so leaf cells end in 1 and the six face cells end in a one bit
// followed by 60 zeros.
//
// This encoding has the convenient property that all the descendants of a
// cell occupy a single contiguous range of CellID values, which makes
// containment and intersection tests simple integer range comparisons.
type CellID uint64

const (
	lookupBits = 4
	swapMask   = 0x01
	invertMask = 0x02

	faceBits = 3
	numFaces = 6
	maxLevel = 30
	posBits  = 2*maxLevel + 1
	maxSize  = 1 << maxLevel

	wrapOffset = uint64(numFaces) << posBits
)

var (
	posToIJ = [4][4]int{
		{0, 1, 3, 2}, // canonical order:    (0,0), (0,1), (1,1), (1,0)
		{0, 2, 3, 1}, // axes swapped:       (0,0), (1,0), (1,1), (0,1)
		{3, 2, 0, 1}, // bits inverted:      (1,1), (1,0), (0,0), (0,1)
		{3, 1, 0, 2}, // swapped & inverted: (1,1), (0,1), (0,0), (1,0)
	}
	posToOrientation = [4]int{swapMask, 0, 0, invertMask | swapMask}
	lookupIJ         [1 << (2*lookupBits + 2)]int
	lookupPos        [1 << (2*lookupBits + 2)]int
)

func init() {
	initLookupCell(0, 0, 0, 0, 0, 0)
	initLookupCell(0, 0, 0, swapMask, 0, swapMask)
	initLookupCell(0, 0, 0, invertMask, 0, invertMask)
	initLookupCell(0, 0, 0, swapMask|invertMask, 0, swapMask|invertMask)
}

// initLookupCell builds the lookup tables used to encode and decode
// lookupBits Hilbert curve steps at a time.
func initLookupCell(level, i, j, origOrientation, pos, orientation int) {
	if level == lookupBits {
		ij := (i << lookupBits) + j
		lookupPos[(ij<<2)+origOrientation] = (pos << 2) + orientation
		lookupIJ[(pos<<2)+origOrientation] = (ij << 2) + orientation
		return
	}
	level++
	i <<= 1
	j <<= 1
	pos <<= 2
	r := posToIJ[orientation]
	for subPos := 0; subPos < 4; subPos++ {
		initLookupCell(level, i+(r[subPos]>>1), j+(r[subPos]&1),
			origOrientation, pos+subPos, orientation^posToOrientation[subPos])
	}
}

// CellIDFromFace returns the cell corresponding to a given cube face.
func CellIDFromFace(face int) CellID {
	return CellID(uint64(face)<<posBits + lsbForLevel(0))
}

// CellIDFromFacePosLevel returns a cell given its face (0-5), the 61-bit
// Hilbert curve position pos within that face, and the level (0-maxLevel).
// The position in the returned cell is truncated to correspond to the
// Hilbert curve position at the center of the returned cell.
func CellIDFromFacePosLevel(face int, pos uint64, level int) CellID {
	return CellID(uint64(face)<<posBits + pos | 1).Parent(level)
}

// CellIDFromLatLng returns the leaf cell containing ll.
func CellIDFromLatLng(ll LatLng) CellID {
	return cellIDFromPoint(PointFromLatLng(ll))
}

// cellIDFromPoint returns the leaf cell containing point p.
func cellIDFromPoint(p Point) CellID {
	f, u, v := xyzToFaceUV(p.Vector)
	i := stToIJ(uvToST(u))
	j := stToIJ(uvToST(v))
	return cellIDFromFaceIJ(f, i, j)
}

// cellIDFromFaceIJ returns a leaf cell given its cube face (0-5) and IJ
// coordinates.
func cellIDFromFaceIJ(f, i, j int) CellID {
	// Note that this value gets shifted one bit to the left at the end
	// of the function.
	n := uint64(f) << (posBits - 1)
	// Alternating faces have opposite Hilbert curve orientations; this
	// is necessary in order for all faces to have a right-handed
	// coordinate system.
	bits := f & swapMask
	// Each iteration maps 4 bits of "i" and "j" into 8 bits of the
	// Hilbert curve position. The lookup table transforms a 10-bit key
	// of the form "iiiijjjjoo" to a 10-bit value of the form
	// "ppppppppoo", where the letters [ijpo] denote bits of "i", "j",
	// Hilbert curve position, and Hilbert curve orientation respectively.
	for k := 7; k >= 0; k-- {
		mask := (1 << lookupBits) - 1
		bits += ((i >> uint(k*lookupBits)) & mask) << (lookupBits + 2)
		bits += ((j >> uint(k*lookupBits)) & mask) << 2
		bits = lookupPos[bits]
		n |= uint64(bits>>2) << (uint(k) * 2 * lookupBits)
		bits &= swapMask | invertMask
	}
	return CellID(n*2 + 1)
}

// cellIDFromFaceIJWrap returns a leaf cell given its cube face and IJ
// coordinates, handling coordinates that lie just beyond the edge of the
// face by projecting them onto the correct adjacent face.
func cellIDFromFaceIJWrap(f, i, j int) CellID {
	// Convert i and j to the coordinates of a leaf cell just beyond the
	// boundary of this face. This prevents 32-bit overflow in the case
	// of finding the neighbors of a face cell.
	i = max(-1, min(maxSize, i))
	j = max(-1, min(maxSize, j))

	// We want to wrap these coordinates onto the appropriate adjacent
	// face. The easiest way to do this is to convert the (i,j)
	// coordinates to (x,y,z), then reproject onto the face containing
	// that point. Note that the (u,v) coordinate of the boundary leaf
	// cell is computed below with a small offset past the face boundary,
	// so that the reprojection lands on the correct neighbor.
	const scale = 1.0 / maxSize
	limit := math.Nextafter(1, 2)
	u := math.Max(-limit, math.Min(limit, scale*float64((i<<1)+1-maxSize)))
	v := math.Max(-limit, math.Min(limit, scale*float64((j<<1)+1-maxSize)))

	// Find the leaf cell coordinates on the adjacent face, and convert
	// them to a cell id at the appropriate level.
	f, u, v = xyzToFaceUV(faceUVToXYZ(f, u, v))
	return cellIDFromFaceIJ(f, stToIJ(0.5*(u+1)), stToIJ(0.5*(v+1)))
}

// cellIDFromFaceIJSame dispatches to cellIDFromFaceIJ or
// cellIDFromFaceIJWrap depending on whether the (i,j) coordinates are known
// to lie on the same face as the original cell.
func cellIDFromFaceIJSame(f, i, j int, sameFace bool) CellID {
	if sameFace {
		return cellIDFromFaceIJ(f, i, j)
	}
	return cellIDFromFaceIJWrap(f, i, j)
}

// IsValid reports whether ci represents a valid cell.
func (ci CellID) IsValid() bool {
	return ci.Face() < numFaces && ci.lsb()&0x1555555555555555 != 0
}

// Face returns the cube face for this cell id, in the range [0,5].
func (ci CellID) Face() int { return int(uint64(ci) >> posBits) }

// Pos returns the position along the Hilbert curve of this cell id, in the
// range [0,2^posBits-1].
func (ci CellID) Pos() uint64 { return uint64(ci) & (^uint64(0) >> faceBits) }

// Level returns the subdivision level of this cell id, in the range
// [0, maxLevel].
func (ci CellID) Level() int {
	return maxLevel - bits.TrailingZeros64(uint64(ci))>>1
}

// IsLeaf reports whether this cell id is at the deepest level, i.e. the
// level at which the cells are smallest.
func (ci CellID) IsLeaf() bool { return uint64(ci)&1 != 0 }

// isFace reports whether this is a top-level (face) cell.
func (ci CellID) isFace() bool { return uint64(ci)&(lsbForLevel(0)-1) == 0 }

// lsb returns the least significant bit that is set.
func (ci CellID) lsb() uint64 { return uint64(ci) & -uint64(ci) }

// lsbForLevel returns the lowest-numbered bit that is on for cells at the
// given level.
func lsbForLevel(level int) uint64 { return 1 << uint(2*(maxLevel-level)) }

// Parent returns the cell at the given level, which must be no greater than
// the current level.
func (ci CellID) Parent(level int) CellID {
	lsb := lsbForLevel(level)
	return CellID((uint64(ci) & -lsb) | lsb)
}

// immediateParent is cheaper than Parent, but assumes !ci.isFace().
func (ci CellID) immediateParent() CellID {
	nlsb := CellID(ci.lsb() << 2)
	return (ci & -nlsb) | nlsb
}

// ChildPosition returns the child position (0..3) of this cell's ancestor
// at the given level relative to its parent at level-1.
func (ci CellID) ChildPosition(level int) int {
	return int(uint64(ci)>>uint(2*(maxLevel-level)+1)) & 3
}

// Children returns the four immediate children of this cell. Results are
// undefined if ci is a leaf cell.
func (ci CellID) Children() [4]CellID {
	var ch [4]CellID
	lsb := CellID(ci.lsb())
	ch[0] = ci - lsb + lsb>>2
	lsb >>= 1
	ch[1] = ch[0] + lsb
	ch[2] = ch[1] + lsb
	ch[3] = ch[2] + lsb
	return ch
}

// ChildBegin returns the first child in a traversal of the children of this
// cell, in Hilbert curve order.
//
// The traversal idiom is:
//
//	for ci := c.ChildBegin(); ci != c.ChildEnd(); ci = ci.Next() { ... }
func (ci CellID) ChildBegin() CellID {
	ol := ci.lsb()
	return CellID(uint64(ci) - ol + ol>>2)
}

// ChildBeginAtLevel returns the first cell in a traversal of children a
// given level deeper than this cell, in Hilbert curve order. The given level
// must be no smaller than the cell's level.
func (ci CellID) ChildBeginAtLevel(level int) CellID {
	return CellID(uint64(ci) - ci.lsb() + lsbForLevel(level))
}

// ChildEnd returns the first cell after a traversal of the children of this
// cell in Hilbert curve order. The returned cell may be invalid.
func (ci CellID) ChildEnd() CellID {
	ol := ci.lsb()
	return CellID(uint64(ci) + ol + ol>>2)
}

// ChildEndAtLevel returns the first cell after the last child in a traversal
// of children a given level deeper than this cell, in Hilbert curve order.
// The returned cell may be invalid.
func (ci CellID) ChildEndAtLevel(level int) CellID {
	return CellID(uint64(ci) + ci.lsb() + lsbForLevel(level))
}

// Next returns the next cell along the Hilbert curve at the same level. The
// returned cell may be invalid if this is the last cell on the last face.
func (ci CellID) Next() CellID {
	return CellID(uint64(ci) + ci.lsb()<<1)
}

// Prev returns the previous cell along the Hilbert curve at the same level.
// The returned cell may be invalid if this is the first cell on the first
// face.
func (ci CellID) Prev() CellID {
	return CellID(uint64(ci) - ci.lsb()<<1)
}

// RangeMin returns the minimum CellID that is contained within this cell.
func (ci CellID) RangeMin() CellID { return CellID(uint64(ci) - (ci.lsb() - 1)) }

// RangeMax returns the maximum CellID that is contained within this cell.
func (ci CellID) RangeMax() CellID { return CellID(uint64(ci) + (ci.lsb() - 1)) }

// Contains reports whether oci is contained within ci.
func (ci CellID) Contains(oci CellID) bool {
	return ci.RangeMin() <= oci && oci <= ci.RangeMax()
}

// Intersects reports whether oci intersects ci.
func (ci CellID) Intersects(oci CellID) bool {
	return oci.RangeMin() <= ci.RangeMax() && oci.RangeMax() >= ci.RangeMin()
}

// faceIJOrientation uses the global lookupIJ table to unfiddle the bits of
// this cell id into the leaf-level (i,j) coordinates of its center and the
// Hilbert curve orientation of the cell.
func (ci CellID) faceIJOrientation() (f, i, j, orientation int) {
	f = ci.Face()
	orientation = f & swapMask
	nbits := maxLevel - 7*lookupBits // first iteration

	// Each iteration maps 8 bits of the Hilbert curve position into
	// 4 bits of "i" and "j". The lookup table transforms a key of the
	// form "ppppppppoo" to a value of the form "iiiijjjjoo", where the
	// letters [ijpo] represent bits of "i", "j", the Hilbert curve
	// position, and the Hilbert curve orientation respectively.
	//
	// On the first iteration we need to be careful to clear out the bits
	// representing the cube face.
	for k := 7; k >= 0; k-- {
		orientation += (int(uint64(ci)>>uint(k*2*lookupBits+1)) & ((1 << uint(2*nbits)) - 1)) << 2
		orientation = lookupIJ[orientation]
		i += (orientation >> (lookupBits + 2)) << uint(k*lookupBits)
		j += ((orientation >> 2) & ((1 << lookupBits) - 1)) << uint(k*lookupBits)
		orientation &= swapMask | invertMask
		nbits = lookupBits // following iterations
	}

	// The position of a non-leaf cell at level "n" consists of a prefix
	// of 2*n bits that identifies the cell, followed by a suffix of
	// 2*(maxLevel-n)+1 bits of the form 10*. If n is even, the Hilbert
	// curve orientation of the suffix cancels out; if n is odd it
	// contributes a swap.
	if ci.lsb()&0x1111111111111110 != 0 {
		orientation ^= swapMask
	}
	return f, i, j, orientation
}

// rawPoint returns an unnormalized vector from the origin through the center
// of this cell on the sphere.
func (ci CellID) rawPoint() r3.Vector {
	// First we compute the discrete (i,j) coordinates of a leaf cell
	// contained within the given cell. Given that cells are represented
	// by the Hilbert curve position corresponding to their center, the
	// leaf we want is located either at that center (for leaves) or at
	// one of two fixed offsets from it, chosen so that the (si,ti)
	// coordinates below land exactly on the cell center.
	f, i, j, _ := ci.faceIJOrientation()
	var delta int
	if ci.IsLeaf() {
		delta = 1
	} else if (i^(int(uint64(ci))>>2))&1 != 0 {
		delta = 2
	}
	// (si,ti) run from 0 to 2*maxSize so that cell centers, which lie on
	// a half-integer (i,j) grid, can be represented exactly.
	si := 2*i + delta
	ti := 2*j + delta
	return faceUVToXYZ(f, stToUV(0.5*float64(si)/maxSize), stToUV(0.5*float64(ti)/maxSize))
}

// Point returns the center of this cell as a normalized point on the sphere.
func (ci CellID) Point() Point { return Point{ci.rawPoint().Normalize()} }

// LatLng returns the center of this cell in latitude and longitude.
func (ci CellID) LatLng() LatLng { return LatLngFromPoint(Point{ci.rawPoint()}) }

// EdgeNeighbors returns the four cells that are adjacent across this cell's
// four edges. Edges 0, 1, 2, 3 are in the down, right, up, left directions
// in the face space. All neighbors are guaranteed to be distinct.
func (ci CellID) EdgeNeighbors() [4]CellID {
	level := ci.Level()
	size := sizeIJ(level)
	f, i, j, _ := ci.faceIJOrientation()
	return [4]CellID{
		cellIDFromFaceIJSame(f, i, j-size, j-size >= 0).Parent(level),
		cellIDFromFaceIJSame(f, i+size, j, i+size < maxSize).Parent(level),
		cellIDFromFaceIJSame(f, i, j+size, j+size < maxSize).Parent(level),
		cellIDFromFaceIJSame(f, i-size, j, i-size >= 0).Parent(level),
	}
}

// AppendVertexNeighbors appends the neighbors of the closest vertex to this
// cell at the given level. Normally there are four neighbors, but the
// closest vertex may only have three neighbors if it is one of the 8 cube
// vertices.
//
// Requires level < ci.Level(), so that it can determine which vertex this
// cell is closest to (in particular, level == maxLevel is not allowed).
func (ci CellID) AppendVertexNeighbors(level int, output *[]CellID) {
	f, i, j, _ := ci.faceIJOrientation()

	// Determine the i- and j-offsets to the closest neighboring cell in
	// each direction. This involves looking at the next bit of "i" and
	// "j" to determine which quadrant of ci.Parent(level) this cell lies
	// in.
	halfsize := sizeIJ(level + 1)
	size := halfsize << 1
	var isame, jsame bool
	var ioffset, joffset int
	if i&halfsize != 0 {
		ioffset = size
		isame = (i + size) < maxSize
	} else {
		ioffset = -size
		isame = (i - size) >= 0
	}
	if j&halfsize != 0 {
		joffset = size
		jsame = (j + size) < maxSize
	} else {
		joffset = -size
		jsame = (j - size) >= 0
	}

	*output = append(*output, ci.Parent(level))
	*output = append(*output, cellIDFromFaceIJSame(f, i+ioffset, j, isame).Parent(level))
	*output = append(*output, cellIDFromFaceIJSame(f, i, j+joffset, jsame).Parent(level))
	if isame || jsame {
		*output = append(*output, cellIDFromFaceIJSame(f, i+ioffset, j+joffset, isame && jsame).Parent(level))
	}
}

// AppendAllNeighbors appends all neighbors of this cell at the given level
// to output. Two cells X and Y are neighbors if their boundaries intersect
// but their interiors do not. In particular, two cells that intersect at a
// single point are neighbors. Note that for cells adjacent to a face vertex,
// the same neighbor may be appended more than once. Requires nbrLevel >=
// ci.Level().
func (ci CellID) AppendAllNeighbors(nbrLevel int, output *[]CellID) {
	f, i, j, _ := ci.faceIJOrientation()

	// Find the coordinates of the lower left corner of the cell (instead
	// of the center of the leaf cell it contains).
	size := sizeIJ(ci.Level())
	i &= -size
	j &= -size

	nbrSize := sizeIJ(nbrLevel)

	// We compute the top-bottom, left-right, and diagonal neighbors in
	// one pass. The loop test is at the end of the loop to avoid 32-bit
	// overflow.
	for k := -nbrSize; ; k += nbrSize {
		var sameFace bool
		if k < 0 {
			sameFace = j+k >= 0
		} else if k >= size {
			sameFace = j+k < maxSize
		} else {
			sameFace = true
			// Top and bottom neighbors.
			*output = append(*output, cellIDFromFaceIJSame(f, i+k, j-nbrSize, j-size >= 0).Parent(nbrLevel))
			*output = append(*output, cellIDFromFaceIJSame(f, i+k, j+size, j+size < maxSize).Parent(nbrLevel))
		}
		// Left, right, and diagonal neighbors.
		*output = append(*output, cellIDFromFaceIJSame(f, i-nbrSize, j+k, sameFace && i-size >= 0).Parent(nbrLevel))
		*output = append(*output, cellIDFromFaceIJSame(f, i+size, j+k, sameFace && i+size < maxSize).Parent(nbrLevel))
		if k >= size {
			break
		}
	}
}

// String returns the cell as "face/pos", where pos is the base-4 Hilbert
// curve position of the cell, one digit per level.
func (ci CellID) String() string {
	if !ci.IsValid() {
		return "Invalid: " + fmt.Sprintf("%016x", uint64(ci))
	}
	var b bytes.Buffer
	b.WriteByte("012345"[ci.Face()])
	b.WriteByte('/')
	for level := 1; level <= ci.Level(); level++ {
		b.WriteByte("0123"[ci.ChildPosition(level)])
	}
	return b.String()
}
