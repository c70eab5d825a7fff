package s2

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// A CellUnion is a collection of CellIDs representing a region on the
// sphere.
//
// It is normalized if it is sorted and does not contain redundancy.
// Specifically, it may not contain the same CellID twice, nor a CellID that
// is contained by another, nor the four sibling CellIDs that are children of
// a single higher level CellID.
//
// Except for the Raw entry points, all initialization methods normalize the
// union before returning, and all algebraic operations produce normalized
// output. The query and algebra methods require the union to be normalized;
// operating on a raw-initialized union that is not in normalized form
// produces undefined results.
type CellUnion []CellID

// Init initializes the union with a copy of the given CellIDs and
// normalizes it.
func (cu *CellUnion) Init(cellIds []CellID) {
	cu.InitRaw(cellIds)
	cu.Normalize()
}

// InitFromIDs initializes the union from raw 64-bit cell ids and normalizes
// it. This is useful when restoring a union from external storage, where the
// ids are kept as plain integers.
func (cu *CellUnion) InitFromIDs(ids []uint64) {
	cu.InitRawFromIDs(ids)
	cu.Normalize()
}

// InitSwap initializes the union by taking ownership of the given list,
// which is left empty, and normalizes it.
func (cu *CellUnion) InitSwap(cellIds *[]CellID) {
	cu.InitRawSwap(cellIds)
	cu.Normalize()
}

// InitRaw is like Init but skips normalization. The caller is responsible
// for ensuring the input is normalized, e.g. because it round-trips an
// already-minimal cover.
func (cu *CellUnion) InitRaw(cellIds []CellID) {
	*cu = append((*cu)[:0:0], cellIds...)
}

// InitRawFromIDs is like InitFromIDs but skips normalization.
func (cu *CellUnion) InitRawFromIDs(ids []uint64) {
	*cu = make(CellUnion, len(ids))
	for i, id := range ids {
		(*cu)[i] = CellID(id)
	}
}

// InitRawSwap is like InitSwap but skips normalization.
func (cu *CellUnion) InitRawSwap(cellIds *[]CellID) {
	*cu = *cellIds
	*cellIds = nil
}

// NumCells returns the number of cells in the union.
func (cu CellUnion) NumCells() int { return len(cu) }

// CellID returns the cell id at the given index.
func (cu CellUnion) CellID(i int) CellID { return cu[i] }

// Equal reports whether the two unions contain the identical cell sequence.
func (cu CellUnion) Equal(other CellUnion) bool {
	if len(cu) != len(other) {
		return false
	}
	for i, id := range cu {
		if id != other[i] {
			return false
		}
	}
	return true
}

// Pack reallocates the union into exactly the memory it needs. Useful when
// a long-lived union was built through operations that left spare capacity
// behind. It has no effect on the union's contents.
func (cu *CellUnion) Pack() {
	if cap(*cu) == len(*cu) {
		return
	}
	packed := make(CellUnion, len(*cu))
	copy(packed, *cu)
	*cu = packed
}

// Normalize normalizes the CellUnion: it sorts the cells, discards cells
// covered by other cells, and repeatedly replaces any four complete sibling
// cells by their parent. It reports whether the number of cells was reduced.
// The union is left sorted even when no reduction occurs.
func (cu *CellUnion) Normalize() bool {
	sort.Sort(byID(*cu))

	output := make([]CellID, 0, len(*cu)) // the list of accepted cells
	// Loop invariant: output is a sorted list of cells with no redundancy.
	for _, ci := range *cu {
		// The first two passes here either ignore this new candidate,
		// or remove previously accepted cells that are covered by this
		// candidate.

		// Ignore this cell if it is contained by the previous one.
		// We only need to check the last accepted cell. The ordering of
		// the cells implies containment (but not the converse), and
		// output has no redundancy, so if this candidate is not
		// contained by the last accepted cell then it cannot be
		// contained by any previously accepted cell.
		if len(output) > 0 && output[len(output)-1].Contains(ci) {
			continue
		}

		// Discard any previously accepted cells contained by this one.
		// This could be any contiguous trailing subsequence, but it
		// can't be a discontiguous subsequence because of the
		// containment property of sorted cells mentioned above.
		j := len(output) - 1 // last index to keep
		for j >= 0 {
			if !ci.Contains(output[j]) {
				break
			}
			j--
		}
		output = output[:j+1]

		// See if the last three cells plus this one can be collapsed.
		// We loop because collapsing three accepted cells and adding a
		// higher level cell could cascade into previously accepted
		// cells.
		for len(output) >= 3 {
			fin := output[len(output)-3:]

			// Fast XOR test; a necessary but not sufficient condition.
			if fin[0]^fin[1]^fin[2]^ci != 0 {
				break
			}

			// More expensive test; exact. Compute the two bit mask
			// for the encoded child position, then see if they all
			// agree.
			mask := CellID(ci.lsb() << 1)
			mask = ^(mask + mask<<1)
			should := ci & mask
			if (fin[0]&mask != should) || (fin[1]&mask != should) || (fin[2]&mask != should) || ci.isFace() {
				break
			}

			output = output[:len(output)-3]
			ci = ci.immediateParent() // checked !ci.isFace above
		}
		output = append(output, ci)
	}
	if len(output) < len(*cu) {
		*cu = output
		return true
	}
	return false
}

// Denormalize replaces this union by an equivalent set of cells at a fixed
// level. Specifically, every cell of the union whose level is less than
// minLevel, or whose (level - minLevel) is not a multiple of levelMod, is
// replaced by its children until one of these conditions holds. This
// operation never fails; level and mod parameters are caller-validated.
func (cu CellUnion) Denormalize(minLevel, levelMod int) []CellID {
	output := make([]CellID, 0, len(cu))
	for _, id := range cu {
		level := id.Level()
		newLevel := max(minLevel, level)
		if levelMod > 1 {
			// Round up so that (newLevel - minLevel) is a multiple
			// of levelMod. (Note that maxLevel is a multiple of 1,
			// 2, and 3.)
			newLevel += (maxLevel - (newLevel - minLevel)) % levelMod
			newLevel = min(maxLevel, newLevel)
		}
		if newLevel == level {
			output = append(output, id)
		} else {
			end := id.ChildEndAtLevel(newLevel)
			for id = id.ChildBeginAtLevel(newLevel); id != end; id = id.Next() {
				output = append(output, id)
			}
		}
	}
	return output
}

// ContainsCellID reports whether the union contains the given cell,
// including all of its descendants. Requires a normalized union.
func (cu CellUnion) ContainsCellID(id CellID) bool {
	// This is an exact test. Each cell occupies a linear span of the
	// space-filling curve, and the cell id is simply the position at the
	// center of this span. The cell union ids are sorted in increasing
	// order along the space-filling curve. So we simply find the pair of
	// cell ids that surround the given cell id (using binary search).
	// There is containment if and only if one of these two cell ids
	// contains this cell.
	idx := sort.Search(len(cu), func(i int) bool { return cu[i] >= id })
	if idx < len(cu) && cu[idx].RangeMin() <= id {
		return true
	}
	return idx > 0 && cu[idx-1].RangeMax() >= id
}

// IntersectsCellID reports whether the union intersects the given cell.
// Requires a normalized union. This is an exact test; see ContainsCellID.
func (cu CellUnion) IntersectsCellID(id CellID) bool {
	idx := sort.Search(len(cu), func(i int) bool { return cu[i] >= id })
	if idx < len(cu) && cu[idx].RangeMin() <= id.RangeMax() {
		return true
	}
	return idx > 0 && cu[idx-1].RangeMax() >= id.RangeMin()
}

// ContainsCellUnion reports whether this union contains every cell of the
// other union. Requires both unions to be normalized.
func (cu CellUnion) ContainsCellUnion(other CellUnion) bool {
	// A divide-and-conquer or two-pointer approach is significantly
	// faster in both the average and worst case, but this is simple
	// and correct at O(m log n).
	for _, id := range other {
		if !cu.ContainsCellID(id) {
			return false
		}
	}
	return true
}

// IntersectsCellUnion reports whether this union intersects any cell of the
// other union. Requires both unions to be normalized.
func (cu CellUnion) IntersectsCellUnion(other CellUnion) bool {
	for _, id := range other {
		if cu.IntersectsCellID(id) {
			return true
		}
	}
	return false
}

// ContainsPoint reports whether the union contains the given point.
func (cu CellUnion) ContainsPoint(p Point) bool {
	return cu.ContainsCellID(cellIDFromPoint(p))
}

// ContainsCell implements Region.
func (cu CellUnion) ContainsCell(cell Cell) bool {
	return cu.ContainsCellID(cell.id)
}

// MayIntersect implements Region. For cell unions the test is exact.
func (cu CellUnion) MayIntersect(cell Cell) bool {
	return cu.IntersectsCellID(cell.id)
}

// GetUnion initializes the receiver to the union of x and y. Requires both
// operands to be normalized, and the receiver must not alias either operand.
func (cu *CellUnion) GetUnion(x, y *CellUnion) {
	out := make([]CellID, 0, len(*x)+len(*y))
	out = append(out, *x...)
	out = append(out, *y...)
	*cu = out
	cu.Normalize()
}

// GetIntersectionWithCellID initializes the receiver to the intersection of
// x with the given cell. The result is normalized; no further normalization
// is needed since x is. The receiver must not alias x.
func (cu *CellUnion) GetIntersectionWithCellID(x *CellUnion, id CellID) {
	*cu = (*cu)[:0]
	if x.ContainsCellID(id) {
		// The cell is entirely covered, so it is itself the
		// intersection.
		*cu = append(*cu, id)
		return
	}
	// Collect the consecutive run of cells of x that lie within the
	// cell's leaf range.
	idx := lowerBound(*x, 0, id.RangeMin())
	idmax := id.RangeMax()
	for idx < len(*x) && (*x)[idx] <= idmax {
		*cu = append(*cu, (*x)[idx])
		idx++
	}
}

// GetIntersection initializes the receiver to the intersection of x and y.
// Requires both operands to be normalized, and the receiver must not alias
// either operand.
func (cu *CellUnion) GetIntersection(x, y *CellUnion) {
	*cu = (*cu)[:0]

	// This is a two-pointer merge: because both inputs are sorted and
	// disjoint, each step either emits a cell that is contained by the
	// other side's current cell, or skips ahead (by binary search) past a
	// run of cells that cannot possibly intersect.
	i, j := 0, 0
	for i < len(*x) && j < len(*y) {
		imin := (*x)[i].RangeMin()
		jmin := (*y)[j].RangeMin()
		if imin > jmin {
			// Either (*y)[j] contains (*x)[i] or the two cells
			// are disjoint.
			if (*x)[i] <= (*y)[j].RangeMax() {
				*cu = append(*cu, (*x)[i])
				i++
			} else {
				// Advance j to the first cell possibly
				// contained by (*x)[i].
				j = lowerBound(*y, j+1, imin)
				// The previous cell may now contain (*x)[i].
				if (*x)[i] <= (*y)[j-1].RangeMax() {
					j--
				}
			}
		} else if jmin > imin {
			// Identical to the code above with "i" and "j"
			// reversed.
			if (*y)[j] <= (*x)[i].RangeMax() {
				*cu = append(*cu, (*y)[j])
				j++
			} else {
				i = lowerBound(*x, i+1, jmin)
				if (*y)[j] <= (*x)[i-1].RangeMax() {
					i--
				}
			}
		} else {
			// "i" and "j" have the same RangeMin(), so one cell
			// contains the other.
			if (*x)[i] < (*y)[j] {
				*cu = append(*cu, (*x)[i])
				i++
			} else {
				*cu = append(*cu, (*y)[j])
				j++
			}
		}
	}
	// The output is generated in sorted order. Since both inputs are
	// normalized there cannot be four consecutive output cells that are
	// children of a common parent (a parent would have to be contained
	// in both inputs, in which case the inputs would have contained it
	// rather than its children), so the result is already normalized.
}

// Expand replaces this union by the smallest union that contains it along
// with all cells at the given level that are adjacent to any of its cells.
// Two cells are adjacent if their boundaries have any points in common, so
// in particular diagonal neighbors are included.
//
// Note that the union may grow by a lot when the cells being expanded are
// much coarser than the given level; callers that want to bound the output
// size should use ExpandByRadius instead.
func (cu *CellUnion) Expand(level int) {
	output := make([]CellID, 0, len(*cu))
	levelLsb := lsbForLevel(level)
	for i := len(*cu) - 1; i >= 0; i-- {
		id := (*cu)[i]
		if id.lsb() < levelLsb {
			id = id.Parent(level)
			// Optimization: skip over any cells contained by this
			// one. This is especially important when very small
			// regions are being expanded.
			for i > 0 && id.Contains((*cu)[i-1]) {
				i--
			}
		}
		output = append(output, id)
		id.AppendAllNeighbors(level, &output)
	}
	cu.InitSwap(&output)
}

// ExpandByRadius replaces this union by the smallest union that contains it
// along with all points within minRadius of its boundary.
//
// The expansion is done by choosing an expansion level and calling
// Expand(level). The level is the finest at which every cell is guaranteed
// to be at least minRadius wide, but never more than maxLevelDiff levels
// finer than the coarsest cell already in the union; this bounds the number
// of cells in the result at the cost of expanding by more than minRadius
// where the union contains large cells.
func (cu *CellUnion) ExpandByRadius(minRadius s1.Angle, maxLevelDiff int) {
	minLevel := maxLevel
	for _, id := range *cu {
		minLevel = min(minLevel, id.Level())
	}
	// Find the maximum level such that all cells are at least minRadius
	// wide.
	radiusLevel := MinWidth.MaxLevel(minRadius.Radians())
	if radiusLevel == 0 && minRadius.Radians() > MinWidth.Value(0) {
		// The requested expansion is greater than the width of a
		// face cell. The easiest way to handle this is to expand
		// twice.
		cu.Expand(0)
	}
	cu.Expand(min(minLevel+maxLevelDiff, radiusLevel))
}

// LeafCellsCovered returns the number of leaf cells covered by this union.
// This will be no more than 6*2^60 for the whole sphere. Requires a
// normalized union (so that no cell is counted twice).
func (cu CellUnion) LeafCellsCovered() uint64 {
	var numLeaves uint64
	for _, id := range cu {
		numLeaves += 1 << uint((maxLevel-id.Level())<<1)
	}
	return numLeaves
}

// AverageBasedArea returns the approximate area of the union, computed as
// the number of leaf cells covered times the average leaf cell area. This
// is equivalent to calling AvgArea.Value on every cell and is accurate to
// within a factor of 1.7 (the maximum ratio between the area of any cell
// and the average).
func (cu CellUnion) AverageBasedArea() float64 {
	return AvgArea.Value(maxLevel) * float64(cu.LeafCellsCovered())
}

// ApproxArea returns the approximate area of the union, summing the
// approximate area of each cell. It is accurate to within 3% for unions of
// large numbers of cells at various levels.
func (cu CellUnion) ApproxArea() float64 {
	var area float64
	for _, id := range cu {
		area += CellFromCellID(id).ApproxArea()
	}
	return area
}

// ExactArea returns the area of the union, summing the exact area of each
// cell.
func (cu CellUnion) ExactArea() float64 {
	var area float64
	for _, id := range cu {
		area += CellFromCellID(id).ExactArea()
	}
	return area
}

// CapBound implements Region, returning a spherical cap that contains the
// whole union.
func (cu CellUnion) CapBound() Cap {
	if len(cu) == 0 {
		return EmptyCap()
	}

	// Compute the approximate centroid of the region. This won't produce
	// the bounding cap of minimal area, but it should be close enough.
	var centroid r3.Vector
	for _, id := range cu {
		area := AverageArea(id.Level())
		centroid = centroid.Add(id.Point().Mul(area))
	}
	axis := centerPoint
	if centroid != (r3.Vector{}) {
		axis = Point{centroid.Normalize()}
	}

	// Grow the cap to include the bounding cap of every cell; just
	// covering the cell centers or vertices would not suffice, since the
	// bound may span more than a hemisphere.
	bound := CapFromCenterHeight(axis, 0)
	for _, id := range cu {
		bound.AddCap(CellFromCellID(id).CapBound())
	}
	return bound
}

// RectBound returns a latitude-longitude rectangle that contains the whole
// union.
func (cu CellUnion) RectBound() Rect {
	bound := EmptyRect()
	for _, id := range cu {
		bound = bound.Union(CellFromCellID(id).RectBound())
	}
	return bound
}

// lowerBound returns the first index in ids[from:] whose cell is not less
// than val, or len(ids) if there is none.
func lowerBound(ids []CellID, from int, val CellID) int {
	return from + sort.Search(len(ids)-from, func(k int) bool { return ids[from+k] >= val })
}

type byID []CellID

func (cu byID) Len() int           { return len(cu) }
func (cu byID) Less(i, j int) bool { return uint64(cu[i]) < uint64(cu[j]) }
func (cu byID) Swap(i, j int)      { cu[i], cu[j] = cu[j], cu[i] }
