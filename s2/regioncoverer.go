package s2

import "container/heap"

// RegionCoverer allows arbitrary regions to be approximated as unions of
// cells. A typical use would be:
//
//	rc := &RegionCoverer{MaxLevel: 30, MaxCells: 5}
//	covering := rc.Covering(region)
//
// Note the following:
//
//   - MinLevel takes priority over MaxCells, i.e. cells below the given
//     level will never be used even if this causes a large number of cells
//     to be returned.
//   - For any setting of MaxCells, up to 6 cells may be returned if that is
//     the minimum number required (e.g. if the region intersects all six
//     cube faces). Even for very tiny regions up to 3 cells may be returned
//     if they happen to be located at the intersection of three faces.
//   - The accuracy of the approximation depends on how accurately the
//     underlying region is modeled by MayIntersect and ContainsCell; the
//     coverer never evaluates the region's geometry directly.
type RegionCoverer struct {
	MinLevel int // the minimum cell level to be used
	MaxLevel int // the maximum cell level to be used
	LevelMod int // the LevelMod to be used
	MaxCells int // the maximum desired number of cells in the approximation
}

const (
	// By default, the covering uses at most 8 cells at any level. This
	// gives a reasonable tradeoff between the number of cells used and
	// the accuracy of the approximation.
	defaultMaxCells = 8
)

// coverer holds the per-invocation state of a covering computation, so that
// a RegionCoverer value can be reused across calls.
type coverer struct {
	minLevel         int
	maxLevel         int
	levelMod         int
	maxCells         int
	region           Region
	result           []CellID
	pq               priorityQueue
	interiorCovering bool
}

type candidate struct {
	cell     Cell
	terminal bool // cell should not be expanded further
	children []*candidate
	priority int
}

type priorityQueue []*candidate

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].priority > pq[j].priority }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(*candidate)) }

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	c := old[n-1]
	*pq = old[:n-1]
	return c
}

// maxChildrenShift returns the log base 2 of the maximum number of children
// of a candidate.
func (c *coverer) maxChildrenShift() int { return 2 * c.levelMod }

// newCandidate returns a new candidate for the given cell, or nil if the
// cell cannot possibly contribute to the covering.
func (c *coverer) newCandidate(cell Cell) *candidate {
	if !c.region.MayIntersect(cell) {
		return nil
	}
	terminal := false
	level := int(cell.level)
	if level >= c.minLevel {
		if c.interiorCovering {
			if c.region.ContainsCell(cell) {
				terminal = true
			} else if level+c.levelMod > c.maxLevel {
				return nil
			}
		} else if level+c.levelMod > c.maxLevel || c.region.ContainsCell(cell) {
			terminal = true
		}
	}
	cand := &candidate{cell: cell, terminal: terminal}
	if !terminal {
		cand.children = make([]*candidate, 0, 1<<uint(c.maxChildrenShift()))
	}
	return cand
}

// expandChildren populates cand's children with candidates numLevels deeper
// than its cell, and returns the number of terminal children created.
func (c *coverer) expandChildren(cand *candidate, cell Cell, numLevels int) int {
	numLevels--
	childCells := make([]Cell, 0, 4)
	cell.Subdivide(&childCells)
	numTerminals := 0
	for _, childCell := range childCells {
		if numLevels > 0 {
			if c.region.MayIntersect(childCell) {
				numTerminals += c.expandChildren(cand, childCell, numLevels)
			}
			continue
		}
		if child := c.newCandidate(childCell); child != nil {
			cand.children = append(cand.children, child)
			if child.terminal {
				numTerminals++
			}
		}
	}
	return numTerminals
}

// addCandidate adds the given candidate to the result if it is terminal,
// and expands and enqueues it otherwise.
func (c *coverer) addCandidate(cand *candidate) {
	if cand == nil {
		return
	}
	if cand.terminal {
		c.result = append(c.result, cand.cell.id)
		return
	}

	// Expand one level at a time until we hit minLevel to ensure that we
	// don't skip over it.
	numLevels := c.levelMod
	level := int(cand.cell.level)
	if level < c.minLevel {
		numLevels = 1
	}
	numTerminals := c.expandChildren(cand, cand.cell, numLevels)

	switch shift := uint(c.maxChildrenShift()); {
	case len(cand.children) == 0:
		// Not contributing.
	case !c.interiorCovering && numTerminals == 1<<shift && level >= c.minLevel:
		// Optimization: add the parent cell rather than all of its
		// children. We can't do this for interior coverings, since
		// the children just intersect the region, but may not be
		// contained by it - we need to subdivide them further.
		cand.terminal = true
		c.addCandidate(cand)
	default:
		// We negate the priority so that smaller absolute priorities
		// are returned first. The heuristic is designed to refine the
		// largest cells first, since those are where we have the
		// largest potential gain. Among cells at the same level, we
		// prefer the cells with the smallest number of intersecting
		// children. Finally, we prefer cells that have the smallest
		// number of children that cannot be refined further.
		cand.priority = -(((level<<uint(c.maxChildrenShift()))+len(cand.children))<<uint(c.maxChildrenShift()) + numTerminals)
		heap.Push(&c.pq, cand)
	}
}

// initialCandidates seeds the queue with a small set of starting cells.
func (c *coverer) initialCandidates() {
	// Optimization: if at least 4 cells are desired (the normal case),
	// start with a 4-cell covering of the region's bounding cap. This
	// lets us skip quite a few levels of refinement when the region to
	// be covered is relatively small.
	if c.maxCells >= 4 {
		// Find the maximum level such that the bounding cap contains
		// at most one cell vertex at that level.
		cb := c.region.CapBound()
		level := min(MinWidth.MaxLevel(2*cb.Radius().Radians()), min(c.maxLevel, maxLevel-1))
		if c.levelMod > 1 && level > c.minLevel {
			level -= (level - c.minLevel) % c.levelMod
		}
		// We don't bother trying to optimize the level == 0 case,
		// since more than four face cells may be required.
		if level > 0 {
			// Find the leaf cell containing the cap axis, and
			// determine which subcell of the parent cell contains
			// it.
			base := make([]CellID, 0, 4)
			cellIDFromPoint(cb.center).AppendVertexNeighbors(level, &base)
			for _, id := range base {
				c.addCandidate(c.newCandidate(CellFromCellID(id)))
			}
			return
		}
	}
	// Default: start with all six cube faces.
	for face := 0; face < 6; face++ {
		c.addCandidate(c.newCandidate(faceCells[face]))
	}
}

// coveringInternal generates a covering of the region into c.result.
//
// Strategy: start with the 6 faces of the cube. Discard any that do not
// intersect the shape. Then repeatedly choose the largest cell that
// intersects the shape and subdivide it.
//
// result contains the cells that will be part of the output, while pq
// contains cells that we may still need to subdivide further. Cells that
// are entirely contained within the region are immediately added to the
// output, while cells that do not intersect the region are immediately
// discarded. Therefore pq only contains cells that partially intersect the
// region. Candidates are prioritized first according to cell size (larger
// cells first), then by the number of intersecting children they have
// (fewest children first), and then by the number of fully contained
// children (fewest children first).
func (c *coverer) coveringInternal(region Region) {
	c.region = region
	c.initialCandidates()
	for c.pq.Len() > 0 && (!c.interiorCovering || len(c.result) < c.maxCells) {
		cand := heap.Pop(&c.pq).(*candidate)

		// For interior covering we keep subdividing no matter how
		// many children a candidate has. If we reach MaxCells before
		// expanding all children, we will just use some of them. For
		// exterior covering we cannot do this, because the result has
		// to cover the whole region, so we expand the candidate only
		// if the final number of cells stays within MaxCells.
		count := 0
		if !c.interiorCovering {
			count = c.pq.Len()
		}
		if int(cand.cell.level) < c.minLevel ||
			len(cand.children) == 1 ||
			len(c.result)+count+len(cand.children) <= c.maxCells {
			// Expand this candidate into its children.
			for _, child := range cand.children {
				c.addCandidate(child)
			}
		} else if !c.interiorCovering {
			cand.terminal = true
			c.addCandidate(cand)
		}
	}
	c.pq = c.pq[:0]
	c.region = nil
}

// newCoverer returns an instance of coverer with the configuration of rc
// clamped to valid ranges, and MaxCells defaulted if unset.
func (rc *RegionCoverer) newCoverer() *coverer {
	c := &coverer{
		minLevel: max(0, min(maxLevel, rc.MinLevel)),
		maxLevel: max(0, min(maxLevel, rc.MaxLevel)),
		levelMod: max(1, min(3, rc.LevelMod)),
		maxCells: rc.MaxCells,
	}
	if rc.MaxCells <= 0 {
		c.maxCells = defaultMaxCells
	}
	return c
}

// Covering returns a []CellID that covers the given region and satisfies
// the various restrictions specified by rc.
func (rc *RegionCoverer) Covering(region Region) []CellID {
	// Rather than just returning the raw list of cell ids, we construct
	// a cell union and then denormalize it. This has the effect of
	// replacing four child cells with their parent whenever this does
	// not violate the covering parameters specified (MinLevel, LevelMod,
	// etc). This significantly reduces the number of cells returned in
	// many cases, and it is cheap compared to computing the covering in
	// the first place.
	cu := rc.CellUnionCovering(region)
	return cu.Denormalize(max(0, min(maxLevel, rc.MinLevel)), max(1, min(3, rc.LevelMod)))
}

// InteriorCovering returns a []CellID that is contained within the given
// region and satisfies the various restrictions specified by rc.
func (rc *RegionCoverer) InteriorCovering(region Region) []CellID {
	cu := rc.InteriorCellUnionCovering(region)
	return cu.Denormalize(max(0, min(maxLevel, rc.MinLevel)), max(1, min(3, rc.LevelMod)))
}

// CellUnionCovering returns a normalized CellUnion that covers the given
// region and satisfies the restrictions except for MinLevel and LevelMod:
// the cells in the union may be coarser than MinLevel allows, since
// normalization replaces groups of four children with their parent.
func (rc *RegionCoverer) CellUnionCovering(region Region) CellUnion {
	c := rc.newCoverer()
	c.coveringInternal(region)
	var covering CellUnion
	covering.InitSwap(&c.result)
	return covering
}

// InteriorCellUnionCovering returns a normalized CellUnion that is
// contained within the given region, with the same caveats about MinLevel
// and LevelMod as CellUnionCovering.
func (rc *RegionCoverer) InteriorCellUnionCovering(region Region) CellUnion {
	c := rc.newCoverer()
	c.interiorCovering = true
	c.coveringInternal(region)
	var covering CellUnion
	covering.InitSwap(&c.result)
	return covering
}

// FloodFill returns all edge-connected cells at the same level as start
// that intersect the given region, in arbitrary order.
func FloodFill(region Region, start CellID) []CellID {
	all := map[CellID]bool{start: true}
	frontier := []CellID{start}
	var output []CellID
	for len(frontier) > 0 {
		back := len(frontier) - 1
		id := frontier[back]
		frontier = frontier[:back]
		if !region.MayIntersect(CellFromCellID(id)) {
			continue
		}
		output = append(output, id)
		for _, nbr := range id.EdgeNeighbors() {
			if !all[nbr] {
				all[nbr] = true
				frontier = append(frontier, nbr)
			}
		}
	}
	return output
}

// SimpleCovering returns a covering of the region consisting of cells at
// the given level that completely cover it. The cells are in arbitrary
// order and may include duplicates; start must be a point contained by the
// region.
func SimpleCovering(region Region, start Point, level int) []CellID {
	return FloodFill(region, cellIDFromPoint(start).Parent(level))
}

var faceCells [6]Cell

func init() {
	for face := 0; face < 6; face++ {
		faceCells[face] = CellFromCellID(CellIDFromFace(face))
	}
}
