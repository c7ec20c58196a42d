package jxf

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a 3D point. Documents may author 2D points; they are lifted to
// 3D with Z = 0 when parsed, so every consumer sees one representation.
type Point struct {
	X, Y, Z float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float64 {
	d := p.Sub(q)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// IsFinite reports whether every coordinate is finite.
func (p Point) IsFinite() bool {
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON encodes the point as a 3-element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.X, p.Y, p.Z})
}

// UnmarshalJSON decodes a 2- or 3-element array.
func (p *Point) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch len(v) {
	case 2:
		*p = Point{X: v[0], Y: v[1]}
	case 3:
		*p = Point{X: v[0], Y: v[1], Z: v[2]}
	default:
		return fmt.Errorf("point has %d coordinates, want 2 or 3", len(v))
	}
	return nil
}

// Bounds is an axis-aligned 3D bounding box.
type Bounds struct {
	Min, Max Point
}

// EmptyBounds returns a box that contains nothing; extending it with a
// point yields that point's box.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: Point{X: inf, Y: inf, Z: inf},
		Max: Point{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend returns the smallest box containing b and p.
func (b Bounds) Extend(p Point) Bounds {
	return Bounds{
		Min: Point{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: Point{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing both boxes.
func (b Bounds) Union(other Bounds) Bounds {
	if other.IsEmpty() {
		return b
	}
	return b.Extend(other.Min).Extend(other.Max)
}
