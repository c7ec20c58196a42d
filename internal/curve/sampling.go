package curve

import "math"

// MaxSegments bounds the number of segments any single curve is split into,
// so a tiny tolerance cannot turn one entity into an unbounded loop.
const MaxSegments = 1 << 16

// Sampling selects how densely a curve is sampled. Exactly one field is
// meaningful: Count > 0 selects a fixed number of segments, otherwise
// Tolerance is the maximum chordal deviation.
type Sampling struct {
	Count     int
	Tolerance float64
}

// Fixed reports whether s uses a fixed segment count.
func (s Sampling) Fixed() bool {
	return s.Count > 0
}

func clampSegments(n float64) int {
	switch {
	case math.IsNaN(n) || n < 1:
		return 1
	case n > MaxSegments:
		return MaxSegments
	}
	return int(n)
}
