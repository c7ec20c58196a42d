package jxf

import (
	"errors"
	"math"
	"testing"
)

func TestSampleConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SampleConfig
		wantErr bool
	}{
		{"default", DefaultSampleConfig(), false},
		{"fixed 1", FixedCount(1), false},
		{"fixed 64", FixedCount(64), false},
		{"fixed 0", FixedCount(0), true},
		{"fixed negative", FixedCount(-3), true},
		{"fixed fractional", SampleConfig{Mode: SampleFixedCount, Value: 2.5}, true},
		{"fixed too many", FixedCount(1 << 20), true},
		{"tolerance", Tolerance(0.5), false},
		{"tolerance zero", Tolerance(0), true},
		{"tolerance negative", Tolerance(-1), true},
		{"tolerance NaN", Tolerance(math.NaN()), true},
		{"tolerance Inf", Tolerance(math.Inf(1)), true},
		{"unknown mode", SampleConfig{Mode: "adaptive", Value: 1}, true},
		{"zero value", SampleConfig{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSampleConfig) {
				t.Errorf("error %v does not match ErrInvalidSampleConfig", err)
			}
		})
	}
}

func TestParseSampleConfig(t *testing.T) {
	tests := []struct {
		in   string
		want SampleConfig
	}{
		{"mode: fixedCount\nvalue: 32\n", FixedCount(32)},
		{"value: 0.5\n", Tolerance(0.5)},
		{"", DefaultSampleConfig()},
		{`{"mode": "tolerance", "value": 0.25}`, Tolerance(0.25)},
	}
	for _, tt := range tests {
		got, err := ParseSampleConfig([]byte(tt.in))
		if err != nil {
			t.Errorf("ParseSampleConfig(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSampleConfig(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseSampleConfigErrors(t *testing.T) {
	for _, in := range []string{
		"mode: fixedCount\nvalue: 0\n",
		"mode: chord\n",
		"value: [1, 2]\n",
		"mode: [",
	} {
		if _, err := ParseSampleConfig([]byte(in)); !errors.Is(err, ErrInvalidSampleConfig) {
			t.Errorf("ParseSampleConfig(%q) error = %v, want ErrInvalidSampleConfig", in, err)
		}
	}
}
