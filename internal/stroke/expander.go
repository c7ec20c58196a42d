package stroke

import (
	"math"
)

// Point is a 3D point (internal copy to avoid an import cycle with jxf).
type Point struct {
	X, Y, Z float64
}

// Add offsets p by v in the XY plane, keeping Z.
func (p Point) Add(v Vec2) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y, Z: p.Z}
}

// Sub returns the XY difference between two points.
func (p Point) Sub(q Point) Vec2 {
	return Vec2{X: p.X - q.X, Y: p.Y - q.Y}
}

// Vec2 is a vector in the XY plane.
type Vec2 struct {
	X, Y float64
}

// Scale returns the vector scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Neg returns the negated vector.
func (v Vec2) Neg() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Dot returns the dot product.
func (v Vec2) Dot(w Vec2) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the z-component of the 3D cross product.
func (v Vec2) Cross(w Vec2) float64 {
	return v.X*w.Y - v.Y*w.X
}

// Length returns the length of the vector.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns a unit vector in the same direction, or zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l < 1e-12 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Perp returns the vector rotated 90 degrees counter-clockwise.
func (v Vec2) Perp() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Rotate returns the vector rotated counter-clockwise by angle radians.
func (v Vec2) Rotate(angle float64) Vec2 {
	sin, cos := math.Sincos(angle)
	return Vec2{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

// Cap specifies the shape of open polyline ends.
type Cap int

const (
	// CapButt ends the outline flat at the endpoint.
	CapButt Cap = iota
	// CapRound ends the outline with a semicircle.
	CapRound
	// CapSquare ends the outline flat, width/2 past the endpoint.
	CapSquare
)

// Join specifies the shape of corners between segments.
type Join int

const (
	// JoinMiter extends the offset lines until they meet.
	JoinMiter Join = iota
	// JoinRound fills the corner with a circular arc.
	JoinRound
	// JoinBevel cuts the corner with a straight segment.
	JoinBevel
)

// Style defines the outline geometry.
type Style struct {
	Width      float64
	Cap        Cap
	Join       Join
	MiterLimit float64
}

// DefaultMiterLimit is the miter limit used when Style.MiterLimit is not
// positive.
const DefaultMiterLimit = 4.0

// DefaultTolerance is the default maximum deviation of round caps and
// joins from the true circle.
const DefaultTolerance = 0.25

// maxArcSegments bounds round cap and join subdivision.
const maxArcSegments = 1024

// Ring is a closed boundary polygon. The closing edge from the last point
// back to the first is implicit.
type Ring []Point

// Expander converts polylines into outline rings.
type Expander struct {
	style     Style
	tolerance float64

	forward  []Point
	backward []Point

	halfWidth  float64
	joinThresh float64
}

// NewExpander creates an expander for the given style.
func NewExpander(style Style) *Expander {
	if style.MiterLimit <= 0 {
		style.MiterLimit = DefaultMiterLimit
	}
	return &Expander{
		style:     style,
		tolerance: DefaultTolerance,
	}
}

// SetTolerance sets the approximation tolerance for round caps and joins.
// Non-positive values are ignored.
func (e *Expander) SetTolerance(tolerance float64) {
	if tolerance > 0 {
		e.tolerance = tolerance
	}
}

// Expand returns the outline rings of the polyline through pts.
//
// Consecutive points that coincide in XY are merged. An open polyline
// yields one ring; a closed polyline yields two (forward side, then the
// reversed backward side). A polyline that collapses to a single point
// yields a disc for round caps, a square for square caps and nothing for
// butt caps. A non-positive width yields nothing.
func (e *Expander) Expand(pts []Point, closed bool) []Ring {
	if !(e.style.Width > 0) {
		return nil
	}
	e.reset()

	pts = dedupe(pts, closed)
	switch {
	case len(pts) == 0:
		return nil
	case len(pts) == 1:
		return e.dot(pts[0])
	case closed && len(pts) == 2:
		// out and back along the same segment has no interior
		closed = false
	}

	if closed {
		return e.expandClosed(pts)
	}
	return e.expandOpen(pts)
}

func (e *Expander) reset() {
	e.forward = e.forward[:0]
	e.backward = e.backward[:0]
	e.halfWidth = 0.5 * e.style.Width
	e.joinThresh = 2.0 * e.tolerance / e.style.Width
}

// dedupe drops points that repeat their predecessor in XY. For closed
// input a trailing copy of the first point is dropped as well.
func dedupe(pts []Point, closed bool) []Point {
	out := make([]Point, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && p.Sub(out[len(out)-1]).Length() < 1e-12 {
			continue
		}
		out = append(out, p)
	}
	if closed && len(out) > 1 && out[len(out)-1].Sub(out[0]).Length() < 1e-12 {
		out = out[:len(out)-1]
	}
	return out
}

// normal returns the left-hand offset of tangent t scaled to half width.
func (e *Expander) normal(t Vec2) Vec2 {
	return t.Perp().Normalize().Scale(e.halfWidth)
}

func (e *Expander) expandOpen(pts []Point) []Ring {
	last := len(pts) - 1
	t0 := pts[1].Sub(pts[0])
	tn := pts[last].Sub(pts[last-1])
	n0, nn := e.normal(t0), e.normal(tn)

	e.forward = append(e.forward, pts[0].Add(n0.Neg()))
	e.backward = append(e.backward, pts[0].Add(n0))
	for i := 1; i < last; i++ {
		e.join(pts[i], pts[i].Sub(pts[i-1]), pts[i+1].Sub(pts[i]))
	}
	e.forward = append(e.forward, pts[last].Add(nn.Neg()))
	e.backward = append(e.backward, pts[last].Add(nn))

	ring := make(Ring, 0, len(e.forward)+len(e.backward)+8)
	ring = append(ring, e.forward...)
	ring = e.endCap(ring, pts[last], nn.Neg(), tn)
	for i := len(e.backward) - 1; i >= 0; i-- {
		ring = append(ring, e.backward[i])
	}
	ring = e.endCap(ring, pts[0], n0, t0.Neg())
	return []Ring{ring}
}

func (e *Expander) expandClosed(pts []Point) []Ring {
	n := len(pts)
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		e.join(pts[i], pts[i].Sub(prev), next.Sub(pts[i]))
	}

	outer := make(Ring, len(e.forward))
	copy(outer, e.forward)
	inner := make(Ring, 0, len(e.backward))
	for i := len(e.backward) - 1; i >= 0; i-- {
		inner = append(inner, e.backward[i])
	}
	return []Ring{outer, inner}
}

// join emits the offset points around vertex p where the incoming tangent
// tIn turns into the outgoing tangent tOut.
func (e *Expander) join(p Point, tIn, tOut Vec2) {
	nIn, nOut := e.normal(tIn), e.normal(tOut)
	cross := tIn.Cross(tOut)
	dot := tIn.Dot(tOut)
	hypot := math.Hypot(cross, dot)

	// Insignificant angle change: still connect both chains so they stay
	// continuous, but skip the corner geometry.
	if dot > 0.0 && math.Abs(cross) < hypot*e.joinThresh {
		e.forward = append(e.forward, p.Add(nOut.Neg()))
		e.backward = append(e.backward, p.Add(nOut))
		return
	}

	// A left turn (cross > 0) puts the outside of the corner on the forward
	// (right-hand) chain.
	outer, inner := &e.forward, &e.backward
	outIn, outOut := nIn.Neg(), nOut.Neg()
	if cross < 0 {
		outer, inner = inner, outer
		outIn, outOut = nIn, nOut
	}

	*outer = append(*outer, p.Add(outIn))
	switch e.style.Join {
	case JoinBevel:
	case JoinMiter:
		// Miter length relative to half width is 1/cos(θ/2) where θ is the
		// turn angle; 2/(1+cos θ) = 1/cos²(θ/2).
		if 2.0*hypot < (hypot+dot)*e.style.MiterLimit*e.style.MiterLimit {
			*outer = append(*outer, e.miterPoint(p, outIn, outOut))
		}
	case JoinRound:
		*outer = e.arc(*outer, p, outIn, math.Atan2(cross, dot))
	}
	*outer = append(*outer, p.Add(outOut))

	// The inner offset lines cross inside the corner. Use the crossing when
	// it lies on both segments, otherwise route through the vertex.
	if q, ok := e.innerPoint(p, outIn.Neg(), outOut.Neg(), tIn.Length(), tOut.Length()); ok {
		*inner = append(*inner, q)
	} else {
		*inner = append(*inner, p.Add(outIn.Neg()), p, p.Add(outOut.Neg()))
	}
}

// miterPoint intersects the two offset lines on the outer side of p.
// a and b are the outer offsets (length halfWidth) of the two segments.
func (e *Expander) miterPoint(p Point, a, b Vec2) Point {
	bisector := a.Add(b).Normalize()
	cos := bisector.Dot(a.Normalize())
	if cos < 1e-12 {
		return p.Add(a)
	}
	return p.Add(bisector.Scale(e.halfWidth / cos))
}

// innerPoint intersects the two offset lines on the inner side of p. It
// fails when the crossing lies beyond either segment of length lenIn and
// lenOut.
func (e *Expander) innerPoint(p Point, a, b Vec2, lenIn, lenOut float64) (Point, bool) {
	bisector := a.Add(b).Normalize()
	cos := bisector.Dot(a.Normalize())
	if cos < 1e-12 {
		return Point{}, false
	}
	d := e.halfWidth / cos
	along := math.Sqrt(math.Max(d*d-e.halfWidth*e.halfWidth, 0))
	if along > lenIn || along > lenOut {
		return Point{}, false
	}
	return p.Add(bisector.Scale(d)), true
}

// arc appends the interior points of a circular arc around center, starting
// at offset from (excluded) and rotating by angle radians (endpoint also
// excluded).
func (e *Expander) arc(out []Point, center Point, from Vec2, angle float64) []Point {
	n := e.arcSegments(angle)
	for i := 1; i < n; i++ {
		out = append(out, center.Add(from.Rotate(angle*float64(i)/float64(n))))
	}
	return out
}

// arcSegments picks the segment count keeping the chordal deviation of an
// arc of radius halfWidth within the tolerance.
func (e *Expander) arcSegments(angle float64) int {
	step := math.Pi
	if e.tolerance < e.halfWidth {
		step = 2 * math.Acos(1-e.tolerance/e.halfWidth)
	}
	n := math.Ceil(math.Abs(angle) / step)
	switch {
	case math.IsNaN(n) || n < 1:
		return 1
	case n > maxArcSegments:
		return maxArcSegments
	}
	return int(n)
}

// endCap appends the cap at center, travelling from the point at
// center+from (already in ring) to center-from. dir is the direction the
// cap extends into.
func (e *Expander) endCap(ring Ring, center Point, from, dir Vec2) Ring {
	switch e.style.Cap {
	case CapButt:
	case CapSquare:
		ext := dir.Normalize().Scale(e.halfWidth)
		ring = append(ring, center.Add(from.Add(ext)), center.Add(from.Neg().Add(ext)))
	case CapRound:
		ring = e.arc(ring, center, from, math.Pi)
	}
	return ring
}

// dot outlines a polyline that collapsed to a single point.
func (e *Expander) dot(p Point) []Ring {
	switch e.style.Cap {
	case CapRound:
		from := Vec2{X: e.halfWidth}
		ring := Ring{p.Add(from)}
		ring = e.arc(ring, p, from, 2*math.Pi)
		return []Ring{ring}
	case CapSquare:
		h := e.halfWidth
		return []Ring{{
			p.Add(Vec2{X: -h, Y: -h}),
			p.Add(Vec2{X: h, Y: -h}),
			p.Add(Vec2{X: h, Y: h}),
			p.Add(Vec2{X: -h, Y: h}),
		}}
	}
	return nil
}
