package s2

import "math"

// Metric is a measure for cells. The Deriv field is the value of the metric
// for a cell at level 0 projected to one unit of (s,t)-space; values for
// other levels are obtained by scaling, with Dim giving the power of the
// scale factor (1 for length metrics, 2 for area metrics).
type Metric struct {
	Dim   int
	Deriv float64
}

// Value returns the value of the metric at the given level.
func (m Metric) Value(level int) float64 {
	return math.Ldexp(m.Deriv, -m.Dim*level)
}

// MinLevel returns the minimum level such that the metric is at most the
// given value, or maxLevel if there is no such level. The return value is
// always a valid level.
func (m Metric) MinLevel(val float64) int {
	if val <= 0 {
		return maxLevel
	}
	// This code is equivalent to computing a floating-point "level" value
	// and rounding up. Frexp returns a fraction in the range [0.5,1) and
	// the corresponding exponent.
	_, level := math.Frexp(val / m.Deriv)
	return max(0, min(maxLevel, -((level-1)>>uint(m.Dim-1))))
}

// MaxLevel returns the maximum level such that the metric is at least the
// given value, or zero if there is no such level. The return value is
// always a valid level.
func (m Metric) MaxLevel(val float64) int {
	if val <= 0 {
		return maxLevel
	}
	_, level := math.Frexp(m.Deriv / val)
	return max(0, min(maxLevel, (level-1)>>uint(m.Dim-1)))
}

// ClosestLevel returns the level at which the metric has approximately the
// given value. The return value is always a valid level.
func (m Metric) ClosestLevel(val float64) int {
	x := math.Sqrt2
	if m.Dim == 2 {
		x = 2
	}
	return m.MinLevel(x * val)
}

// Defined metrics for the quadratic (s,t) to (u,v) transform. The values
// below were obtained by a combination of hand analysis and Mathematica.
var (
	MinAngleSpan = Metric{1, 4. / 3}               // 1.333
	MaxAngleSpan = Metric{1, 1.704897179199218452} // 1.705
	AvgAngleSpan = Metric{1, math.Pi / 2}          // 1.571 (true for all projections)
	MinWidth     = Metric{1, 2 * math.Sqrt2 / 3}   // 0.943
	MaxWidth     = Metric{1, MaxAngleSpan.Deriv}   // (true for all projections)
	AvgWidth     = Metric{1, 1.434523672886099389} // 1.435
	MinEdge      = Metric{1, 2 * math.Sqrt2 / 3}   // 0.943
	MaxEdge      = Metric{1, MaxAngleSpan.Deriv}   // (true for all projections)
	AvgEdge      = Metric{1, 1.459213746386106062} // 1.459
	MinDiag      = Metric{1, 8 * math.Sqrt2 / 9}   // 1.257
	MaxDiag      = Metric{1, 2.438654594434021032} // 2.439
	AvgDiag      = Metric{1, 2.060422738998471683} // 2.060
	MinArea      = Metric{2, 8 * math.Sqrt2 / 9}   // 1.257
	MaxArea      = Metric{2, 2.635799256963161491} // 2.636
	AvgArea      = Metric{2, 4 * math.Pi / 6}      // 2.094 (true for all projections)
)

const (
	MaxEdgeAspect = 1.442615274452682920 // 1.443
	MaxDiagAspect = 1.7320508075688772   // sqrt(3), true for all projections
)
