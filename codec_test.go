package jxf

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

const batchDoc = `{
  "asset": {"format": "JXF", "version": "1.0"},
  "units": "mm",
  "layers": [{"id": "0"}],
  "entities": [
    {"type": "line", "id": "l", "layer": "0", "start": [0, 0], "end": [1, 0]},
    {"type": "arc", "id": "bad-arc", "center": [0, 0], "radius": 0},
    {"type": "arc", "id": "c", "center": [0, 0], "radius": 1},
    {"type": "mesh", "id": "m", "vertexCount": 3, "faceCount": 1, "indices": [0, 1, 2],
     "positionBuffer": {"uri": "tri.bin", "byteOffset": 0, "byteLength": 36, "componentType": "float32", "components": 3}},
    {"type": "polyline", "id": "p", "points": [[0,0],[1,1],[2,0]]}
  ]
}`

func TestCodecDefaults(t *testing.T) {
	c := New()
	if c.Sampling() != DefaultSampleConfig() {
		t.Errorf("Sampling() = %+v, want default", c.Sampling())
	}
	if len(c.Registry().Names()) != 0 {
		t.Error("new codec has registered extensions")
	}
}

func TestCodecOptions(t *testing.T) {
	c := New(
		WithSampling(FixedCount(8)),
		WithWorkers(2),
		WithExtension("ACME_scale", unitsScale("ACME_scale")),
		WithOutline(OutlineOptions{MiterLimit: 2}),
	)
	if c.Sampling() != FixedCount(8) {
		t.Errorf("Sampling() = %+v, want fixedCount 8", c.Sampling())
	}
	if !c.Registry().Supports("ACME_scale") {
		t.Error("WithExtension handler not registered")
	}
	if c.workers != 2 || c.outline.MiterLimit != 2 {
		t.Errorf("workers = %d, miter limit = %v", c.workers, c.outline.MiterLimit)
	}
}

func TestNewPanicsOnBadExtension(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New did not panic for a handler that cannot handle its name")
		}
	}()
	New(WithExtension("ACME_a", unitsScale("ACME_b")))
}

func TestCodecOpen(t *testing.T) {
	src := strings.Replace(batchDoc, `"units": "mm",`,
		`"units": "mm", "extensions": {"ACME_scale": 2}, "extensionsUsed": ["ACME_scale"], "extensionsRequired": ["ACME_scale"],`, 1)

	if _, _, err := New().Open([]byte(src)); !errors.Is(err, ErrUnsupportedRequiredExtension) {
		t.Errorf("Open without handler = %v, want ErrUnsupportedRequiredExtension", err)
	}

	c := New(WithExtension("ACME_scale", unitsScale("ACME_scale")))
	doc, issues, err := c.Open([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Entities[0].(*Line).End; got != Pt(2, 0, 0) {
		t.Errorf("extension not applied: end = %v", got)
	}
	if len(issues) != 1 || issues[0].Kind != IssueInvalidArcRadius {
		t.Errorf("issues = %v, want the bad arc only", issues)
	}

	if _, _, err := c.Open([]byte("{")); !errors.Is(err, ErrParse) {
		t.Errorf("Open(bad json) = %v, want ErrParse", err)
	}
}

func TestEvaluateAll(t *testing.T) {
	c := New(WithSampling(FixedCount(4)), WithWorkers(3))
	doc := mustParse(t, batchDoc)

	res, err := c.EvaluateAll(context.Background(), doc, MapResolver{"tri.bin": triangleBytes})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Geometry) != 5 || len(res.Errors) != 5 {
		t.Fatalf("result has %d geometries, %d errors, want 5 each", len(res.Geometry), len(res.Errors))
	}

	// Results stay in draw order.
	for i, e := range doc.Entities {
		if g := res.Geometry[i]; g != nil && g.EntityID != e.Header().ID {
			t.Errorf("geometry[%d] is %q, want %q", i, g.EntityID, e.Header().ID)
		}
		if (res.Geometry[i] == nil) == (res.Errors[i] == nil) {
			t.Errorf("entity %d: exactly one of geometry and error must be set", i)
		}
	}

	if failed := res.Failed(); len(failed) != 1 || failed[0] != 1 {
		t.Fatalf("Failed() = %v, want [1]", failed)
	}
	var ee *EntityError
	if !errors.As(res.Errors[1], &ee) || ee.EntityID != "bad-arc" || !errors.Is(res.Errors[1], ErrInvalidEntity) {
		t.Errorf("bad arc error = %v", res.Errors[1])
	}
	if len(res.Issues) != 1 {
		t.Errorf("issues = %v, want 1", res.Issues)
	}

	if n := len(res.Geometry[2].Collect()); n != 5 {
		t.Errorf("circle has %d points, want 5", n)
	}
	if m := res.Geometry[3].Mesh; m == nil || m.TriangleCount() != 1 {
		t.Errorf("mesh = %+v, want 1 triangle", m)
	}
	if !errors.Is(res.Err(), ErrInvalidEntity) {
		t.Errorf("Err() = %v, want the bad arc", res.Err())
	}
}

func TestEvaluateAllIsolatesResolverFailure(t *testing.T) {
	c := New()
	doc := mustParse(t, batchDoc)

	res, err := c.EvaluateAll(context.Background(), doc, MapResolver{})
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(res.Errors[3], ErrBufferUnavailable) {
		t.Errorf("mesh error = %v, want ErrBufferUnavailable", res.Errors[3])
	}
	for _, i := range []int{0, 2, 4} {
		if res.Geometry[i] == nil {
			t.Errorf("entity %d not evaluated: %v", i, res.Errors[i])
		}
	}
}

func TestEvaluateAllIsolatesPanics(t *testing.T) {
	c := New(WithWorkers(2))
	doc := mustParse(t, batchDoc)
	r := ResolverFunc(func(context.Context, string) ([]byte, error) {
		panic("resolver exploded")
	})

	res, err := c.EvaluateAll(context.Background(), doc, r)
	if err != nil {
		t.Fatal(err)
	}
	var ee *EntityError
	if !errors.As(res.Errors[3], &ee) || ee.EntityID != "m" {
		t.Fatalf("mesh error = %v, want *EntityError for m", res.Errors[3])
	}
	if !strings.Contains(res.Errors[3].Error(), "resolver exploded") {
		t.Errorf("mesh error %q does not carry the panic value", res.Errors[3])
	}
	if res.Geometry[3] != nil {
		t.Error("panicking entity has geometry")
	}
	for _, i := range []int{0, 2, 4} {
		if res.Geometry[i] == nil {
			t.Errorf("entity %d not evaluated: %v", i, res.Errors[i])
		}
	}
}

func TestEvaluateAllHugeSplineDegree(t *testing.T) {
	src := strings.Replace(batchDoc, `{"type": "polyline", "id": "p"`,
		`{"type": "spline", "id": "s", "degree": 9223372036854775807, "controlPoints": [[0,0],[1,0]]},
    {"type": "polyline", "id": "p"`, 1)
	doc := mustParse(t, src)

	res, err := New(WithWorkers(2)).EvaluateAll(context.Background(), doc, MapResolver{"tri.bin": triangleBytes})
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(res.Errors[4], ErrInvalidEntity) {
		t.Errorf("spline error = %v, want ErrInvalidEntity", res.Errors[4])
	}
	if res.Geometry[5] == nil {
		t.Errorf("polyline after the spline not evaluated: %v", res.Errors[5])
	}
}

func TestEvaluateAllFatal(t *testing.T) {
	src := strings.Replace(batchDoc, `"units": "mm",`,
		`"units": "mm", "extensionsUsed": ["ACME_x"], "extensionsRequired": ["ACME_x"],`, 1)
	res, err := New().EvaluateAll(context.Background(), mustParse(t, src), nil)
	if !errors.Is(err, ErrUnsupportedRequiredExtension) || res != nil {
		t.Errorf("EvaluateAll = %v, %v, want ErrUnsupportedRequiredExtension and no result", res, err)
	}
}

func TestEvaluateAllInvalidSampling(t *testing.T) {
	_, err := New(WithSampling(FixedCount(0))).EvaluateAll(context.Background(), mustParse(t, batchDoc), nil)
	if !errors.Is(err, ErrInvalidSampleConfig) {
		t.Errorf("EvaluateAll = %v, want ErrInvalidSampleConfig", err)
	}
}

func TestEvaluateAllDefaultResolver(t *testing.T) {
	c := New(WithResolver(MapResolver{"tri.bin": triangleBytes}))
	res, err := c.EvaluateAll(context.Background(), mustParse(t, batchDoc), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Geometry[3] == nil {
		t.Errorf("mesh not evaluated with the codec resolver: %v", res.Errors[3])
	}

	g, err := c.Evaluate(context.Background(), triangleMesh(), nil)
	if err != nil || g.Mesh == nil {
		t.Errorf("Codec.Evaluate = %v, %v", g, err)
	}
}

func TestEvaluateAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := mustParse(t, batchDoc)
	res, err := New().EvaluateAll(ctx, doc, MapResolver{"tri.bin": triangleBytes})
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range res.Errors {
		if e == nil {
			continue
		}
		if i != 1 && !errors.Is(e, context.Canceled) {
			t.Errorf("entity %d error = %v, want context.Canceled", i, e)
		}
	}
	for i := range doc.Entities {
		if res.Geometry[i] == nil && res.Errors[i] == nil {
			t.Errorf("entity %d has neither geometry nor error", i)
		}
	}
}

func TestEvaluateAllMaterializesCurves(t *testing.T) {
	doc := mustParse(t, batchDoc)
	res, err := New(WithSampling(FixedCount(4))).EvaluateAll(context.Background(), doc, MapResolver{"tri.bin": triangleBytes})
	if err != nil {
		t.Fatal(err)
	}

	// Changing the entity afterwards must not change evaluated geometry.
	doc.Entities[2].(*Arc).Radius = 100
	for p := range res.Geometry[2].Points {
		if p.Distance(Point{}) > 1+1e-9 {
			t.Fatalf("point %v follows the modified entity", p)
		}
	}
}

func TestEvaluateAllEmpty(t *testing.T) {
	res, err := New().EvaluateAll(context.Background(), mustParse(t, minimalDoc), nil)
	if err != nil || len(res.Geometry) != 0 || res.Err() != nil {
		t.Errorf("EvaluateAll(empty) = %+v, %v", res, err)
	}
}

func TestEvaluateAllConcurrentCodecUse(t *testing.T) {
	c := New(WithSampling(FixedCount(16)), WithWorkers(4))
	r := MapResolver{"tri.bin": triangleBytes}
	doc := mustParse(t, batchDoc)

	var failed atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			res, err := c.EvaluateAll(context.Background(), doc, r)
			if err != nil || len(res.Failed()) != 1 {
				failed.Add(1)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if n := failed.Load(); n != 0 {
		t.Errorf("%d concurrent batches returned unexpected results", n)
	}
}
