package jxf

import (
	"errors"
	"slices"
	"testing"
)

// unitsScale multiplies every line coordinate by the payload's factor.
func unitsScale(name string) ExtensionFunc {
	return ExtensionFunc{Name: name, Fn: func(doc *Document, payload RawValue) (*Document, error) {
		if string(payload) != "2" {
			return nil, errors.New("unsupported payload " + string(payload))
		}
		out := doc.Clone()
		for i, e := range out.Entities {
			if l, ok := e.(*Line); ok {
				c := *l
				c.End = Pt(l.End.X*2, l.End.Y*2, l.End.Z*2)
				out.Entities[i] = &c
			}
		}
		return out, nil
	}}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("ACME_b", unitsScale("ACME_b")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("ACME_a", unitsScale("ACME_a")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("ACME_c", unitsScale("other")); err == nil {
		t.Error("Register accepted a handler that cannot handle the name")
	}
	if err := r.Register("ACME_d", nil); err == nil {
		t.Error("Register accepted a nil handler")
	}

	if got := r.Names(); !slices.Equal(got, []string{"ACME_a", "ACME_b"}) {
		t.Errorf("Names() = %v, want [ACME_a ACME_b]", got)
	}
	if !r.Supports("ACME_a") || r.Supports("ACME_c") {
		t.Error("Supports does not match registrations")
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	if r.Supports("x") || r.Names() != nil {
		t.Error("nil registry should be empty")
	}
	if _, ok := r.Lookup("x"); ok {
		t.Error("nil registry Lookup reported ok")
	}
}

func TestRegistryApply(t *testing.T) {
	doc := mustParse(t, `{"asset": {"format": "JXF", "version": "1.0"}, "units": "mm",
		"entities": [{"type": "line", "id": "l", "start": [0,0], "end": [1,1]}],
		"extensions": {"ACME_scale": 2},
		"extensionsUsed": ["ACME_other", "ACME_scale"]}`)

	r := NewRegistry()
	if err := r.Register("ACME_scale", unitsScale("ACME_scale")); err != nil {
		t.Fatal(err)
	}

	out, err := r.Apply(doc)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Entities[0].(*Line).End; got != Pt(2, 2, 0) {
		t.Errorf("applied end = %v, want (2,2,0)", got)
	}
	if got := doc.Entities[0].(*Line).End; got != Pt(1, 1, 0) {
		t.Errorf("original document changed: end = %v", got)
	}
}

func TestRegistryApplyNoHandlers(t *testing.T) {
	doc := mustParse(t, allKindsDoc)
	out, err := NewRegistry().Apply(doc)
	if err != nil || out != doc {
		t.Errorf("Apply without handlers = %p, %v, want the input document", out, err)
	}
}

func TestRegistryApplyError(t *testing.T) {
	doc := mustParse(t, `{"asset": {"format": "JXF", "version": "1.0"}, "units": "mm", "entities": [],
		"extensions": {"ACME_scale": 3}, "extensionsUsed": ["ACME_scale"]}`)
	r := NewRegistry()
	r.Register("ACME_scale", unitsScale("ACME_scale"))

	_, err := r.Apply(doc)
	var ee *ExtensionError
	if !errors.As(err, &ee) || ee.Name != "ACME_scale" {
		t.Errorf("Apply error = %v, want *ExtensionError for ACME_scale", err)
	}
}
