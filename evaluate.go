package jxf

import (
	"context"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/gogpu/jxf/internal/curve"
)

// Geometry is the evaluated form of one entity.
type Geometry struct {
	EntityID string
	Kind     EntityKind

	// Points is the sampled centerline of a curve entity, or the vertex
	// positions of a mesh. It is lazy and may be ranged over repeatedly.
	Points iter.Seq[Point]

	// Thickness is presentation metadata carried over from the entity.
	Thickness float64

	// Closed reports whether the last point repeats the first.
	Closed bool

	// Mesh is set for mesh entities only.
	Mesh *MeshGeometry
}

// Collect materializes the point sequence.
func (g *Geometry) Collect() []Point {
	if g.Points == nil {
		return nil
	}
	return slices.Collect(g.Points)
}

// Bounds returns the axis-aligned box of all points. The box is empty when
// there are no points.
func (g *Geometry) Bounds() Bounds {
	b := EmptyBounds()
	if g.Points == nil {
		return b
	}
	for p := range g.Points {
		b = b.Extend(p)
	}
	return b
}

// Evaluate turns an entity into geometry. Curve entities are sampled with
// cfg; meshes are assembled through r, which may be nil for meshes without
// a position buffer. Failures are returned as *EntityError.
func Evaluate(ctx context.Context, e Entity, r BufferResolver, cfg SampleConfig) (*Geometry, error) {
	id := e.Header().ID
	g := &Geometry{EntityID: id, Kind: e.Kind(), Thickness: Thickness(e)}

	if m, ok := e.(*Mesh); ok {
		mg, err := AssembleMesh(ctx, m, r)
		if err != nil {
			return nil, entityErr(id, err)
		}
		g.Mesh = mg
		g.Points = slices.Values(mg.Positions)
		return g, nil
	}

	pts, err := SampleCurve(e, cfg)
	if err != nil {
		return nil, entityErr(id, err)
	}
	g.Points = pts
	g.Closed = isClosed(e)
	return g, nil
}

func isClosed(e Entity) bool {
	switch v := e.(type) {
	case *Arc:
		return curve.ResolveSweep(v.StartAngle, v.EndAngle) == 360
	case *Polyline:
		return v.Closed && len(v.Points) > 0
	case *Spline:
		return v.Closed
	}
	return false
}

// SampleCurve returns the sampled centerline of a line, arc, polyline or
// spline. The sequence is computed on demand from the entity, so the entity
// must not be modified while the sequence is in use.
//
// Lines yield their two endpoints and polylines their authored vertices
// (plus the first vertex again when closed); cfg applies to arcs and
// splines only but is validated for every kind.
func SampleCurve(e Entity, cfg SampleConfig) (iter.Seq[Point], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch v := e.(type) {
	case *Line:
		return slices.Values([]Point{v.Start, v.End}), nil

	case *Arc:
		if !(v.Radius > 0) || math.IsInf(v.Radius, 0) {
			return nil, fmt.Errorf("%w: arc radius %v must be a positive number", ErrInvalidEntity, v.Radius)
		}
		a := curve.Arc{
			Center: curve.Point(v.Center),
			Radius: v.Radius,
			Start:  v.StartAngle,
			Sweep:  curve.ResolveSweep(v.StartAngle, v.EndAngle),
		}
		return lift(a.Points(cfg.sampling())), nil

	case *Polyline:
		pts := v.Points
		if v.Closed && len(pts) > 0 {
			pts = append(slices.Clip(pts), pts[0])
		}
		return slices.Values(pts), nil

	case *Spline:
		return sampleSpline(v, cfg)

	case *Mesh:
		return nil, fmt.Errorf("%w: mesh %q is not a curve", ErrInvalidEntity, v.ID)
	}
	return nil, fmt.Errorf("%w: unknown entity type %T", ErrInvalidEntity, e)
}

func sampleSpline(s *Spline, cfg SampleConfig) (iter.Seq[Point], error) {
	if s.Degree < 1 {
		return nil, fmt.Errorf("%w: spline degree %d must be at least 1", ErrInvalidEntity, s.Degree)
	}
	if s.Degree > len(s.ControlPoints)-1 {
		return nil, fmt.Errorf("%w: spline has %d control points, too few for degree %d",
			ErrInvalidEntity, len(s.ControlPoints), s.Degree)
	}

	control := make([]curve.Point, len(s.ControlPoints))
	for i, p := range s.ControlPoints {
		control[i] = curve.Point(p)
	}
	b, err := curve.NewBSpline(s.Degree, control, s.Knots, s.Closed)
	if err != nil {
		return nil, err
	}

	pts := lift(b.Points(cfg.sampling()))
	if s.Closed && s.Knots != nil {
		// Explicit knots describe the authored points only; close the loop
		// with a chord when the curve does not end where it starts.
		return closeLoop(pts), nil
	}
	return pts, nil
}

func lift(seq iter.Seq[curve.Point]) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for p := range seq {
			if !yield(Point(p)) {
				return
			}
		}
	}
}

// closeLoop appends the first point when the sequence ends elsewhere.
func closeLoop(seq iter.Seq[Point]) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		var first, last Point
		n := 0
		for p := range seq {
			if n == 0 {
				first = p
			}
			last = p
			n++
			if !yield(p) {
				return
			}
		}
		if n > 1 && last != first {
			yield(first)
		}
	}
}
