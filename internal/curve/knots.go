package curve

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidKnotVector is returned for knot vectors that cannot define a
// B-spline over the given control points.
var ErrInvalidKnotVector = errors.New("jxf: invalid knot vector")

// ClampedKnots returns the uniform clamped knot vector for count control
// points of the given degree: degree+1 zeros, evenly spaced interior knots,
// degree+1 ones. The curve interpolates its first and last control points.
func ClampedKnots(count, degree int) []float64 {
	knots := make([]float64, count+degree+1)
	interior := count - degree // number of spans
	for i := range knots {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= count:
			knots[i] = 1
		default:
			knots[i] = float64(i-degree) / float64(interior)
		}
	}
	return knots
}

// UniformKnots returns the unclamped uniform knot vector 0, 1, 2, ...
// Used for closed curves, where it gives the seam the same continuity as
// every other knot.
func UniformKnots(count, degree int) []float64 {
	knots := make([]float64, count+degree+1)
	for i := range knots {
		knots[i] = float64(i)
	}
	return knots
}

// CheckKnots verifies that knots can define a degree-p B-spline over count
// control points: the length is count+p+1, every value is finite, values
// never decrease, and the domain [knots[p], knots[count]] is not empty.
func CheckKnots(knots []float64, count, p int) error {
	if p < 1 || len(knots)-count-1 != p {
		return fmt.Errorf("%w: length %d, want controlPoints %d + degree %d + 1",
			ErrInvalidKnotVector, len(knots), count, p)
	}
	for i, k := range knots {
		if math.IsNaN(k) || math.IsInf(k, 0) {
			return fmt.Errorf("%w: knot %d is not finite", ErrInvalidKnotVector, i)
		}
		if i > 0 && k < knots[i-1] {
			return fmt.Errorf("%w: knot %d (%v) is less than knot %d (%v)",
				ErrInvalidKnotVector, i, k, i-1, knots[i-1])
		}
	}
	if knots[p] >= knots[count] {
		return fmt.Errorf("%w: empty parameter domain [%v, %v]",
			ErrInvalidKnotVector, knots[p], knots[count])
	}
	return nil
}
