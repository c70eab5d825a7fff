package s2

import (
	"math"
	"testing"

	"github.com/golang/geo/s1"
)

const (
	tinyRad = 1e-10
	degree  = math.Pi / 180
	eps     = 1e-12
)

var (
	xAxis = PointFromCoords(1, 0, 0)
	yAxis = PointFromCoords(0, 1, 0)
	zAxis = PointFromCoords(0, 0, 1)
)

func TestCapBasic(t *testing.T) {
	empty := EmptyCap()
	full := FullCap()
	if !empty.IsValid() || !empty.IsEmpty() || empty.IsFull() {
		t.Errorf("EmptyCap() = %v, want a valid empty cap", empty)
	}
	if !full.IsValid() || full.IsEmpty() || !full.IsFull() {
		t.Errorf("FullCap() = %v, want a valid full cap", full)
	}
	if got := full.Radius().Radians(); !float64Eq(got, math.Pi) {
		t.Errorf("FullCap().Radius() = %v, want π", got)
	}
	if got := full.Area(); !float64Eq(got, 4*math.Pi) {
		t.Errorf("FullCap().Area() = %v, want 4π", got)
	}
	if got := empty.Complement(); !got.IsFull() {
		t.Errorf("EmptyCap().Complement() = %v, want full", got)
	}
	if got := full.Complement(); !got.IsEmpty() {
		t.Errorf("FullCap().Complement() = %v, want empty", got)
	}

	// A cap containing a single point.
	xaxis := CapFromPoint(xAxis)
	if !xaxis.ContainsPoint(xAxis) {
		t.Errorf("%v.ContainsPoint(%v) = false", xaxis, xAxis)
	}
	if xaxis.ContainsPoint(yAxis) {
		t.Errorf("%v.ContainsPoint(%v) = true", xaxis, yAxis)
	}
	if got := xaxis.Radius().Radians(); got != 0 {
		t.Errorf("%v.Radius() = %v, want 0", xaxis, got)
	}
}

func TestCapContains(t *testing.T) {
	empty := EmptyCap()
	full := FullCap()
	xaxis := CapFromPoint(xAxis)
	hemi := CapFromCenterHeight(PointFromCoords(1, 0, 1), 1)
	tiny := CapFromCenterAngle(PointFromCoords(1, 2, 3), s1.Angle(tinyRad))

	if !empty.Contains(empty) {
		t.Errorf("empty.Contains(empty) = false")
	}
	if !full.Contains(empty) || !full.Contains(full) || !full.Contains(hemi) {
		t.Errorf("the full cap should contain everything")
	}
	if empty.Contains(xaxis) {
		t.Errorf("empty.Contains(%v) = true", xaxis)
	}
	if !hemi.Contains(tiny) {
		t.Errorf("%v.Contains(%v) = false", hemi, tiny)
	}
	if !xaxis.Contains(empty) {
		t.Errorf("%v.Contains(empty) = false", xaxis)
	}
	if hemi.Contains(full) {
		t.Errorf("%v.Contains(full) = true", hemi)
	}
}

func TestCapComplement(t *testing.T) {
	// The complement of a hemisphere centered on +z is one centered on -z.
	hemi := CapFromCenterHeight(zAxis, 1)
	comp := hemi.Complement()
	if !comp.center.ApproxEqual(Point{zAxis.Mul(-1)}) {
		t.Errorf("%v.Complement().center = %v, want %v", hemi, comp.center, zAxis.Mul(-1))
	}
	if !float64Eq(comp.height, 1) {
		t.Errorf("%v.Complement().height = %v, want 1", hemi, comp.height)
	}
	if !comp.ContainsPoint(Point{zAxis.Mul(-1)}) {
		t.Errorf("complement does not contain the antipode")
	}
	if comp.InteriorContainsPoint(zAxis) {
		t.Errorf("complement interior contains the original center")
	}
}

func TestCapExpanded(t *testing.T) {
	if !EmptyCap().Expanded(s1.Angle(2)).IsEmpty() {
		t.Errorf("Expanded() of an empty cap is not empty")
	}
	if !FullCap().Expanded(s1.Angle(2)).IsFull() {
		t.Errorf("Expanded() of the full cap is not full")
	}
	cap50 := CapFromCenterAngle(xAxis, 50*degree)
	cap51 := CapFromCenterAngle(xAxis, 51*degree)
	if !cap50.Expanded(0).ApproxEqual(cap50) {
		t.Errorf("%v.Expanded(0) = %v, want %v", cap50, cap50.Expanded(0), cap50)
	}
	if !cap50.Expanded(s1.Angle(degree)).ApproxEqual(cap51) {
		t.Errorf("%v.Expanded(1°) = %v, want %v", cap50, cap50.Expanded(s1.Angle(degree)), cap51)
	}
	if cap50.Expanded(s1.Angle(129.99 * degree)).IsFull() {
		t.Errorf("%v.Expanded(129.99°).IsFull() = true", cap50)
	}
	if !cap50.Expanded(s1.Angle(130.01 * degree)).IsFull() {
		t.Errorf("%v.Expanded(130.01°).IsFull() = false", cap50)
	}
}

func TestCapAddPoint(t *testing.T) {
	c := CapFromPoint(xAxis)
	c.AddPoint(xAxis)
	if !c.ContainsPoint(xAxis) || c.Radius().Radians() != 0 {
		t.Errorf("adding the center must not grow the cap, got %v", c)
	}
	c.AddPoint(yAxis)
	if !c.ContainsPoint(yAxis) {
		t.Errorf("%v.ContainsPoint(%v) = false after AddPoint", c, yAxis)
	}
	if got := c.Radius().Radians(); !float64Near(got, math.Pi/2, 1e-14) {
		t.Errorf("cap radius after adding an orthogonal point = %v, want π/2", got)
	}

	e := EmptyCap()
	e.AddPoint(zAxis)
	if !e.ContainsPoint(zAxis) || !float64Eq(e.Radius().Radians(), 0) {
		t.Errorf("AddPoint on an empty cap = %v, want a point cap at %v", e, zAxis)
	}
}

func TestCapAddCap(t *testing.T) {
	c := EmptyCap()
	c.AddCap(CapFromPoint(xAxis))
	if !c.ApproxEqual(CapFromPoint(xAxis)) {
		t.Errorf("empty.AddCap(point cap) = %v, want %v", c, CapFromPoint(xAxis))
	}
	c.AddCap(EmptyCap())
	if !c.ApproxEqual(CapFromPoint(xAxis)) {
		t.Errorf("AddCap(empty) changed the cap to %v", c)
	}

	c.AddCap(CapFromCenterAngle(yAxis, s1.Angle(10*degree)))
	want := math.Pi/2 + 10*degree
	if got := c.Radius().Radians(); !float64Near(got, want, 1e-7) {
		t.Errorf("cap radius after AddCap = %v, want %v", got, want)
	}
	if !c.Contains(CapFromCenterAngle(yAxis, s1.Angle(10*degree))) {
		t.Errorf("%v does not contain the added cap", c)
	}
}

func TestCapContainsCell(t *testing.T) {
	faceRadius := math.Atan(math.Sqrt2)
	for face := 0; face < 6; face++ {
		// The cell consisting of the entire face.
		rootCell := CellFromCellID(CellIDFromFace(face))

		// A leaf cell at the midpoint of the v=1 edge.
		edgeCell := CellFromPoint(Point{faceUVToXYZ(face, 0, 1-eps)})

		// A leaf cell at the u=1, v=1 corner.
		cornerCell := CellFromPoint(Point{faceUVToXYZ(face, 1-eps, 1-eps)})

		// Quick check for full and empty caps.
		if !FullCap().ContainsCell(rootCell) {
			t.Errorf("the full cap does not contain %v", rootCell)
		}
		if EmptyCap().MayIntersect(rootCell) {
			t.Errorf("the empty cap may intersect %v", rootCell)
		}

		// Check that the cap containing a face is tight.
		center := Point{faceNorm(face)}
		covering := CapFromCenterAngle(center, s1.Angle(faceRadius+eps))
		if !covering.ContainsCell(rootCell) {
			t.Errorf("%v.ContainsCell(%v) = false", covering, rootCell)
		}
		bulging := CapFromCenterAngle(center, s1.Angle(faceRadius-eps))
		if bulging.ContainsCell(rootCell) {
			t.Errorf("%v.ContainsCell(%v) = true", bulging, rootCell)
		}
		if bulging.ContainsCell(cornerCell) {
			t.Errorf("%v.ContainsCell(%v) = true", bulging, cornerCell)
		}

		// A cap barely covering a single leaf cell.
		first := CapFromPoint(edgeCell.Center())
		if !first.MayIntersect(edgeCell) {
			t.Errorf("%v.MayIntersect(%v) = false", first, edgeCell)
		}
	}
}
