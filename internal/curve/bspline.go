package curve

import (
	"fmt"
	"iter"
	"sort"
)

// maxDepth bounds adaptive subdivision of a single knot span.
const maxDepth = 16

// BSpline is a non-rational B-spline curve (every weight is 1).
type BSpline struct {
	Degree  int
	Control []Point
	Knots   []float64
}

// NewBSpline builds a B-spline from authored data.
//
// When knots is nil a knot vector is synthesized: clamped uniform for open
// curves, and for closed curves the first degree control points are
// repeated at the end and an unclamped uniform vector is used, which makes
// position and tangent match at the seam. Explicit knots always describe
// the control points as given.
func NewBSpline(degree int, control []Point, knots []float64, closed bool) (*BSpline, error) {
	if degree < 1 {
		return nil, fmt.Errorf("%w: degree %d must be at least 1", ErrInvalidKnotVector, degree)
	}
	if degree > len(control)-1 {
		return nil, fmt.Errorf("%w: %d control points, too few for degree %d",
			ErrInvalidKnotVector, len(control), degree)
	}

	if knots == nil {
		if closed {
			wrapped := make([]Point, 0, len(control)+degree)
			wrapped = append(wrapped, control...)
			wrapped = append(wrapped, control[:degree]...)
			control = wrapped
			knots = UniformKnots(len(control), degree)
		} else {
			knots = ClampedKnots(len(control), degree)
		}
	}
	if err := CheckKnots(knots, len(control), degree); err != nil {
		return nil, err
	}
	return &BSpline{Degree: degree, Control: control, Knots: knots}, nil
}

// Domain returns the parameter interval [knots[degree], knots[n]] where n is
// the number of control points.
func (b *BSpline) Domain() (lo, hi float64) {
	return b.Knots[b.Degree], b.Knots[len(b.Control)]
}

// Span returns the knot span index i with knots[i] <= u < knots[i+1].
// Spans are right-continuous, except that u at (or past) the end of the
// domain maps to the last non-empty span so the curve end is reachable.
// u below the domain maps to the first span.
func (b *BSpline) Span(u float64) int {
	p, n := b.Degree, len(b.Control)
	lo, hi := b.Domain()
	if u >= hi {
		i := n - 1
		for i > p && b.Knots[i] == b.Knots[i+1] {
			i--
		}
		return i
	}
	if u < lo {
		u = lo
	}
	// first i in [p, n-1] whose span ends after u
	return p + sort.Search(n-p, func(k int) bool {
		return b.Knots[p+k+1] > u
	})
}

// Basis evaluates N(i,p)(u) with the Cox–de Boor recursion. Quotients with a
// zero denominator are taken as zero. Degree-0 functions follow the span
// convention of Span.
func (b *BSpline) Basis(i, p int, u float64) float64 {
	return b.basis(i, p, u, b.Span(u))
}

func (b *BSpline) basis(i, p int, u float64, span int) float64 {
	if p == 0 {
		if i == span {
			return 1
		}
		return 0
	}
	k := b.Knots
	var left, right float64
	if d := k[i+p] - k[i]; d != 0 {
		left = (u - k[i]) / d * b.basis(i, p-1, u, span)
	}
	if d := k[i+p+1] - k[i+1]; d != 0 {
		right = (k[i+p+1] - u) / d * b.basis(i+1, p-1, u, span)
	}
	return left + right
}

// basisFuns computes the degree+1 non-zero basis functions at u in span,
// N(span-p..span, p). It evaluates the same recursion as Basis bottom-up in
// a triangular table, so the cost is O(p²) instead of O(2^p).
func (b *BSpline) basisFuns(span int, u float64, n, left, right []float64) {
	p, k := b.Degree, b.Knots
	n[0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - k[span+1-j]
		right[j] = k[span+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			tmp := n[r] / (right[r+1] + left[j-r])
			n[r] = saved + right[r+1]*tmp
			saved = left[j-r] * tmp
		}
		n[j] = saved
	}
}

// evaluator holds scratch space so a sampling pass allocates once.
type evaluator struct {
	b              *BSpline
	n, left, right []float64
}

func (b *BSpline) newEvaluator() *evaluator {
	sz := b.Degree + 1
	return &evaluator{
		b:     b,
		n:     make([]float64, sz),
		left:  make([]float64, sz),
		right: make([]float64, sz),
	}
}

func (e *evaluator) at(u float64) Point {
	b := e.b
	lo, hi := b.Domain()
	if u < lo {
		u = lo
	} else if u > hi {
		u = hi
	}
	span := b.Span(u)
	b.basisFuns(span, u, e.n, e.left, e.right)
	var pt Point
	for j := 0; j <= b.Degree; j++ {
		pt = pt.Add(b.Control[span-b.Degree+j].Scale(e.n[j]))
	}
	return pt
}

// PointAt evaluates the curve at parameter u, clamped to the domain.
func (b *BSpline) PointAt(u float64) Point {
	return b.newEvaluator().at(u)
}

// Points samples the curve across its domain.
//
// With a fixed count the domain is split into Count equal parameter steps,
// producing Count+1 points. With a tolerance every non-empty knot span is
// subdivided until the curve stays within Tolerance of each chord.
func (b *BSpline) Points(s Sampling) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		e := b.newEvaluator()
		lo, hi := b.Domain()
		if s.Fixed() {
			n := clampSegments(float64(s.Count))
			for i := 0; i < n; i++ {
				if !yield(e.at(lo + (hi-lo)*float64(i)/float64(n))) {
					return
				}
			}
			yield(e.at(hi))
			return
		}

		u0 := lo
		p0 := e.at(lo)
		if !yield(p0) {
			return
		}
		for i := b.Degree + 1; i <= len(b.Control); i++ {
			u1 := b.Knots[i]
			if u1 <= u0 {
				continue
			}
			p1 := e.at(u1)
			if !b.refine(e, s.Tolerance, u0, u1, p0, p1, 0, yield) {
				return
			}
			u0, p0 = u1, p1
		}
	}
}

// refine yields the samples in (u0, u1], subdividing while the curve
// strays from the chord p0-p1 by more than tol. It reports false once the
// consumer stops.
func (b *BSpline) refine(e *evaluator, tol, u0, u1 float64, p0, p1 Point, depth int, yield func(Point) bool) bool {
	um := 0.5 * (u0 + u1)
	pm := e.at(um)
	if depth < maxDepth && (depth < min(b.Degree-1, 3) || b.deviates(e, tol, u0, u1, p0, p1, pm)) {
		return b.refine(e, tol, u0, um, p0, pm, depth+1, yield) &&
			b.refine(e, tol, um, u1, pm, p1, depth+1, yield)
	}
	return yield(p1)
}

// deviates probes the quarter points as well as the midpoint, so an
// S-shaped piece whose midpoint happens to lie on the chord is still split.
func (b *BSpline) deviates(e *evaluator, tol, u0, u1 float64, p0, p1, pm Point) bool {
	if distanceToSegment(pm, p0, p1) > tol {
		return true
	}
	q1 := e.at(u0 + 0.25*(u1-u0))
	q3 := e.at(u0 + 0.75*(u1-u0))
	return distanceToSegment(q1, p0, p1) > tol || distanceToSegment(q3, p0, p1) > tol
}
