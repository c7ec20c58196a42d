package stroke

import (
	"math"
	"testing"
)

// signedArea returns the shoelace area of a ring (positive when CCW).
func signedArea(r Ring) float64 {
	a := 0.0
	for i := range r {
		j := (i + 1) % len(r)
		a += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return a / 2
}

func contains(r Ring, want Point, tol float64) bool {
	for _, p := range r {
		if math.Hypot(p.X-want.X, p.Y-want.Y) <= tol {
			return true
		}
	}
	return false
}

func pts(xy ...float64) []Point {
	out := make([]Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestNewExpander(t *testing.T) {
	e := NewExpander(Style{Width: 2})
	if e.style.MiterLimit != DefaultMiterLimit {
		t.Errorf("MiterLimit = %v, want %v", e.style.MiterLimit, DefaultMiterLimit)
	}
	if e.tolerance != DefaultTolerance {
		t.Errorf("tolerance = %v, want %v", e.tolerance, DefaultTolerance)
	}
}

func TestExpander_SetTolerance(t *testing.T) {
	e := NewExpander(Style{Width: 1})

	e.SetTolerance(0.1)
	if e.tolerance != 0.1 {
		t.Errorf("tolerance = %v, want 0.1", e.tolerance)
	}
	e.SetTolerance(-1.0)
	if e.tolerance != 0.1 {
		t.Error("negative tolerance should be ignored")
	}
	e.SetTolerance(0)
	if e.tolerance != 0.1 {
		t.Error("zero tolerance should be ignored")
	}
}

func TestExpandButtLine(t *testing.T) {
	e := NewExpander(Style{Width: 2, Cap: CapButt})
	rings := e.Expand(pts(0, 0, 10, 0), false)
	if len(rings) != 1 {
		t.Fatalf("got %d rings, want 1", len(rings))
	}
	want := Ring{{0, -1, 0}, {10, -1, 0}, {10, 1, 0}, {0, 1, 0}}
	if len(rings[0]) != len(want) {
		t.Fatalf("ring = %v, want %v", rings[0], want)
	}
	for i := range want {
		if rings[0][i] != want[i] {
			t.Errorf("ring[%d] = %v, want %v", i, rings[0][i], want[i])
		}
	}
	if a := signedArea(rings[0]); math.Abs(a-20) > 1e-9 {
		t.Errorf("area = %v, want 20", a)
	}
}

func TestExpandSquareCap(t *testing.T) {
	e := NewExpander(Style{Width: 2, Cap: CapSquare})
	rings := e.Expand(pts(0, 0, 10, 0), false)
	if a := signedArea(rings[0]); math.Abs(a-24) > 1e-9 {
		t.Errorf("area = %v, want 24", a)
	}
	for _, corner := range []Point{{11, -1, 0}, {11, 1, 0}, {-1, 1, 0}, {-1, -1, 0}} {
		if !contains(rings[0], corner, 1e-9) {
			t.Errorf("ring %v is missing square cap corner %v", rings[0], corner)
		}
	}
}

func TestExpandRoundCap(t *testing.T) {
	e := NewExpander(Style{Width: 2, Cap: CapRound})
	e.SetTolerance(0.001)
	rings := e.Expand(pts(0, 0, 10, 0), false)
	want := 20 + math.Pi
	if a := signedArea(rings[0]); math.Abs(a-want) > 0.01 {
		t.Errorf("area = %v, want about %v", a, want)
	}
	if !contains(rings[0], Point{X: 11}, 0.01) || !contains(rings[0], Point{X: -1}, 0.01) {
		t.Error("round caps should reach width/2 past each endpoint")
	}
}

func TestExpandMiterJoin(t *testing.T) {
	e := NewExpander(Style{Width: 2, Join: JoinMiter})
	rings := e.Expand(pts(0, 0, 10, 0, 10, 10), false)
	if !contains(rings[0], Point{X: 11, Y: -1}, 1e-9) {
		t.Errorf("ring %v is missing the miter point (11,-1)", rings[0])
	}
	if !contains(rings[0], Point{X: 9, Y: 1}, 1e-9) {
		t.Errorf("ring %v is missing the inner corner (9,1)", rings[0])
	}
}

func TestExpandMiterLimitFallsBackToBevel(t *testing.T) {
	e := NewExpander(Style{Width: 2, Join: JoinMiter, MiterLimit: 4})
	// nearly reverses direction at (10,0)
	rings := e.Expand(pts(0, 0, 10, 0, 0, 0.5), false)
	for _, p := range rings[0] {
		if p.X > 11+1e-9 {
			t.Fatalf("point %v extends past the bevel; miter limit not applied", p)
		}
	}
}

func TestExpandBevelJoin(t *testing.T) {
	e := NewExpander(Style{Width: 2, Join: JoinBevel})
	rings := e.Expand(pts(0, 0, 10, 0, 10, 10), false)
	if contains(rings[0], Point{X: 11, Y: -1}, 1e-6) {
		t.Error("bevel join should not contain the miter point")
	}
	if !contains(rings[0], Point{X: 10, Y: -1}, 1e-9) || !contains(rings[0], Point{X: 11, Y: 0}, 1e-9) {
		t.Error("bevel join should connect the two offset segment ends")
	}
}

func TestExpandRoundJoin(t *testing.T) {
	e := NewExpander(Style{Width: 2, Join: JoinRound})
	e.SetTolerance(0.001)
	rings := e.Expand(pts(0, 0, 10, 0, 10, 10), false)
	mid := Point{X: 10 + math.Sqrt2/2, Y: -math.Sqrt2 / 2}
	if !contains(rings[0], mid, 0.05) {
		t.Errorf("round join should pass near %v", mid)
	}
	for _, p := range rings[0] {
		if p.X > 10 && p.Y < 0 {
			if d := math.Hypot(p.X-10, p.Y); math.Abs(d-1) > 1e-9 {
				t.Errorf("fillet point %v is %v from the corner, want 1", p, d)
			}
		}
	}
}

func TestExpandClosedSquare(t *testing.T) {
	e := NewExpander(Style{Width: 2, Join: JoinMiter})
	rings := e.Expand(pts(0, 0, 10, 0, 10, 10, 0, 10), true)
	if len(rings) != 2 {
		t.Fatalf("closed polyline gave %d rings, want 2", len(rings))
	}
	if a := math.Abs(signedArea(rings[0])); math.Abs(a-144) > 1e-9 {
		t.Errorf("outer area = %v, want 144", a)
	}
	if a := math.Abs(signedArea(rings[1])); math.Abs(a-64) > 1e-9 {
		t.Errorf("inner area = %v, want 64", a)
	}
}

func TestExpandClosedIgnoresRepeatedFirstPoint(t *testing.T) {
	e := NewExpander(Style{Width: 2, Join: JoinMiter})
	a := e.Expand(pts(0, 0, 10, 0, 10, 10, 0, 10), true)
	b := e.Expand(pts(0, 0, 10, 0, 10, 10, 0, 10, 0, 0), true)
	if len(a) != len(b) || len(a[0]) != len(b[0]) {
		t.Fatalf("explicit closing point changed the outline: %v vs %v", a, b)
	}
}

func TestExpandKeepsZ(t *testing.T) {
	e := NewExpander(Style{Width: 1})
	rings := e.Expand([]Point{{0, 0, 5}, {4, 0, 5}}, false)
	for _, p := range rings[0] {
		if p.Z != 5 {
			t.Errorf("point %v lost its Z", p)
		}
	}
}

func TestExpandDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		style Style
		in    []Point
		want  int
	}{
		{"zero width", Style{Width: 0}, pts(0, 0, 1, 0), 0},
		{"empty", Style{Width: 1}, nil, 0},
		{"single point butt", Style{Width: 1, Cap: CapButt}, pts(1, 1), 0},
		{"repeated point round", Style{Width: 1, Cap: CapRound}, pts(1, 1, 1, 1), 1},
		{"single point square", Style{Width: 1, Cap: CapSquare}, pts(1, 1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewExpander(tt.style).Expand(tt.in, false); len(got) != tt.want {
				t.Errorf("Expand() gave %d rings, want %d", len(got), tt.want)
			}
		})
	}
}

func TestExpandDotRoundIsDisc(t *testing.T) {
	e := NewExpander(Style{Width: 2, Cap: CapRound})
	e.SetTolerance(0.0001)
	rings := e.Expand(pts(3, 3), false)
	if a := signedArea(rings[0]); math.Abs(a-math.Pi) > 0.01 {
		t.Errorf("disc area = %v, want about pi", a)
	}
}

func TestExpandReusesExpander(t *testing.T) {
	e := NewExpander(Style{Width: 2})
	first := e.Expand(pts(0, 0, 10, 0), false)
	e.Expand(pts(0, 0, 5, 5, 10, 0), false)
	again := e.Expand(pts(0, 0, 10, 0), false)
	if len(first[0]) != len(again[0]) {
		t.Fatal("expander state leaked between calls")
	}
	for i := range first[0] {
		if first[0][i] != again[0][i] {
			t.Errorf("point %d: %v != %v", i, first[0][i], again[0][i])
		}
	}
}
