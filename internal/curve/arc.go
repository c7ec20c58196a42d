package curve

import (
	"iter"
	"math"
)

// Arc is a circular arc in the XY plane of its center, swept
// counter-clockwise from Start to Start+Sweep (both in degrees).
type Arc struct {
	Center Point
	Radius float64
	Start  float64
	Sweep  float64
}

// ResolveSweep returns the counter-clockwise sweep in degrees from start to
// end. When end < start the sweep wraps through 360. The result is clamped
// to [0, 360]; a zero result means a single-point arc.
func ResolveSweep(start, end float64) float64 {
	sweep := end - start
	if sweep < 0 {
		sweep += 360 * math.Ceil(-sweep/360)
	}
	return math.Min(sweep, 360)
}

// Segments returns the number of segments used to sample the arc.
// In tolerance mode the angular step Δθ satisfies r(1-cos(Δθ/2)) <= tol.
func (a Arc) Segments(s Sampling) int {
	if a.Sweep == 0 {
		return 0
	}
	if s.Fixed() {
		return clampSegments(float64(s.Count))
	}
	step := 180.0 // degrees; any chord of a half circle is within tol >= r
	if s.Tolerance < a.Radius {
		step = 2 * math.Acos(1-s.Tolerance/a.Radius) * 180 / math.Pi
	}
	return clampSegments(math.Ceil(a.Sweep / step))
}

// At returns the point at angle deg (degrees).
func (a Arc) At(deg float64) Point {
	rad := deg * math.Pi / 180
	return Point{
		X: a.Center.X + a.Radius*math.Cos(rad),
		Y: a.Center.Y + a.Radius*math.Sin(rad),
		Z: a.Center.Z,
	}
}

// Points returns Segments(s)+1 uniformly spaced samples. The first sample is
// exactly at Start and the last exactly at Start+Sweep. A zero sweep yields
// one point.
func (a Arc) Points(s Sampling) iter.Seq[Point] {
	n := a.Segments(s)
	return func(yield func(Point) bool) {
		if n == 0 {
			yield(a.At(a.Start))
			return
		}
		for i := 0; i < n; i++ {
			if !yield(a.At(a.Start + a.Sweep*float64(i)/float64(n))) {
				return
			}
		}
		yield(a.At(a.Start + a.Sweep))
	}
}
