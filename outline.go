package jxf

import (
	"fmt"
	"math"

	"github.com/gogpu/jxf/internal/stroke"
)

// OutlineOptions controls polyline outline generation.
type OutlineOptions struct {
	// MiterLimit is the maximum ratio of miter length to thickness before a
	// miter join falls back to a bevel. Non-positive means DefaultMiterLimit.
	MiterLimit float64 `json:"miterLimit" yaml:"miterLimit"`

	// Tolerance is the maximum deviation of round joins and caps from the
	// true circle. Non-positive means DefaultOutlineTolerance.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
}

// Outline defaults.
const (
	DefaultMiterLimit       = stroke.DefaultMiterLimit
	DefaultOutlineTolerance = stroke.DefaultTolerance
)

// DefaultOutlineOptions returns the default miter limit and tolerance.
func DefaultOutlineOptions() OutlineOptions {
	return OutlineOptions{MiterLimit: DefaultMiterLimit, Tolerance: DefaultOutlineTolerance}
}

// Ring is a closed outline boundary in the XY plane. The edge from the last
// point back to the first is implicit. Each point keeps the Z of the vertex
// it was offset from.
type Ring []Point

// OutlinePolyline offsets p by Thickness/2 on each side and returns the
// outline boundary, with p.Join at the corners and p.Cap at the ends of an
// open polyline. An open polyline yields one ring. A closed polyline yields
// two: the outer boundary first, then the inner one.
//
// A polyline with zero thickness has no outline and yields nil.
func OutlinePolyline(p *Polyline, opts OutlineOptions) ([]Ring, error) {
	if p.Thickness < 0 || math.IsNaN(p.Thickness) || math.IsInf(p.Thickness, 0) {
		return nil, fmt.Errorf("%w: polyline thickness %v", ErrInvalidEntity, p.Thickness)
	}
	if p.Thickness == 0 {
		return nil, nil
	}

	style := stroke.Style{
		Width:      p.Thickness,
		MiterLimit: opts.MiterLimit,
	}
	switch p.Cap {
	case CapRound:
		style.Cap = stroke.CapRound
	case CapSquare:
		style.Cap = stroke.CapSquare
	}
	switch p.Join {
	case JoinRound:
		style.Join = stroke.JoinRound
	case JoinBevel:
		style.Join = stroke.JoinBevel
	}

	ex := stroke.NewExpander(style)
	ex.SetTolerance(opts.Tolerance)

	pts := make([]stroke.Point, len(p.Points))
	for i, q := range p.Points {
		pts[i] = stroke.Point(q)
	}
	rings := ex.Expand(pts, p.Closed)

	out := make([]Ring, len(rings))
	for i, r := range rings {
		ring := make(Ring, len(r))
		for j, q := range r {
			ring[j] = Point(q)
		}
		out[i] = ring
	}
	if len(out) == 2 && math.Abs(out[1].area()) > math.Abs(out[0].area()) {
		out[0], out[1] = out[1], out[0]
	}

	Logger().Debug("jxf: outlined polyline", "id", p.ID, "rings", len(out))
	return out, nil
}

// area returns the signed XY area of the ring, positive when
// counter-clockwise.
func (r Ring) area() float64 {
	var a float64
	for i, p := range r {
		q := r[(i+1)%len(r)]
		a += p.X*q.Y - q.X*p.Y
	}
	return 0.5 * a
}
