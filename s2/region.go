package s2

// A Region represents a two-dimensional region on the unit sphere.
//
// The purpose of this interface is to allow complex regions to be
// approximated as simpler regions. The interface is restricted to methods
// that are useful for computing approximations; in particular MayIntersect
// is permitted to return false positives, which the RegionCoverer resolves
// by further subdivision.
type Region interface {
	// MayIntersect reports whether the cell may intersect the region.
	// It may return true even for cells that do not intersect.
	MayIntersect(cell Cell) bool

	// ContainsCell reports whether the cell is entirely contained by the
	// region. It may return false even for contained cells.
	ContainsCell(cell Cell) bool

	// ContainsPoint reports whether the region contains the given point.
	ContainsPoint(p Point) bool

	// CapBound returns a bounding spherical cap of the region. The bound
	// may not be tight.
	CapBound() Cap
}
