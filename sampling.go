package jxf

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/jxf/internal/curve"
)

// SampleMode selects how curves are discretized.
type SampleMode string

// Sampling modes.
const (
	// SampleFixedCount splits each curve into Value segments.
	SampleFixedCount SampleMode = "fixedCount"
	// SampleTolerance bounds the chordal deviation between the true curve
	// and the sampled polyline by Value, in document units.
	SampleTolerance SampleMode = "tolerance"
)

// DefaultTolerance is the chordal tolerance of DefaultSampleConfig.
const DefaultTolerance = 0.01

// SampleConfig controls curve sampling.
//
// In fixedCount mode Value is the number of segments, so a curve yields
// Value+1 points. Lines and polylines ignore the config and always yield
// their authored vertices.
type SampleConfig struct {
	Mode  SampleMode `json:"mode" yaml:"mode"`
	Value float64    `json:"value" yaml:"value"`
}

// DefaultSampleConfig returns tolerance sampling at DefaultTolerance.
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{Mode: SampleTolerance, Value: DefaultTolerance}
}

// FixedCount returns a config splitting each curve into n segments.
func FixedCount(n int) SampleConfig {
	return SampleConfig{Mode: SampleFixedCount, Value: float64(n)}
}

// Tolerance returns a config bounding chordal deviation by tol.
func Tolerance(tol float64) SampleConfig {
	return SampleConfig{Mode: SampleTolerance, Value: tol}
}

// Validate reports whether the config can drive sampling.
func (c SampleConfig) Validate() error {
	switch c.Mode {
	case SampleFixedCount:
		if c.Value < 1 || c.Value != math.Trunc(c.Value) || c.Value > curve.MaxSegments {
			return fmt.Errorf("%w: fixedCount value %v must be an integer in [1, %d]",
				ErrInvalidSampleConfig, c.Value, curve.MaxSegments)
		}
	case SampleTolerance:
		if !(c.Value > 0) || math.IsInf(c.Value, 0) {
			return fmt.Errorf("%w: tolerance value %v must be a positive number", ErrInvalidSampleConfig, c.Value)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSampleConfig, c.Mode)
	}
	return nil
}

func (c SampleConfig) sampling() curve.Sampling {
	if c.Mode == SampleFixedCount {
		return curve.Sampling{Count: int(c.Value)}
	}
	return curve.Sampling{Tolerance: c.Value}
}

// ParseSampleConfig decodes a sampling config from YAML (or JSON, which is
// valid YAML). Missing fields keep the values of DefaultSampleConfig, so
// "value: 0.5" alone selects tolerance 0.5. The result is validated.
func ParseSampleConfig(data []byte) (SampleConfig, error) {
	cfg := DefaultSampleConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SampleConfig{}, fmt.Errorf("%w: %v", ErrInvalidSampleConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return SampleConfig{}, err
	}
	return cfg, nil
}
