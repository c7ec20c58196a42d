package jxf

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"

	"github.com/gogpu/jxf/internal/parallel"
)

// Codec bundles an extension registry with evaluation settings.
//
// A Codec holds no per-document state: Parse, Validate and the evaluation
// methods may be called concurrently on distinct documents. Results depend
// only on the inputs and the options given to New.
type Codec struct {
	registry *Registry
	sampling SampleConfig
	outline  OutlineOptions
	workers  int
	resolver BufferResolver
}

// New creates a codec. It panics if a WithExtension handler cannot handle
// its name; register at runtime through Registry().Register to get an
// error instead.
//
//	c := jxf.New(jxf.WithSampling(jxf.Tolerance(0.05)))
//	doc, issues, err := c.Open(data)
func New(opts ...CodecOption) *Codec {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	reg := NewRegistry()
	for name, h := range options.extensions {
		if err := reg.Register(name, h); err != nil {
			panic(err)
		}
	}

	return &Codec{
		registry: reg,
		sampling: options.sampling,
		outline:  options.outline,
		workers:  options.workers,
		resolver: options.resolver,
	}
}

// Registry returns the codec's extension registry. Handlers registered on
// it after New are visible to later calls.
func (c *Codec) Registry() *Registry {
	return c.registry
}

// Sampling returns the configured sampling.
func (c *Codec) Sampling() SampleConfig {
	return c.sampling
}

// Parse decodes a document. See Parse.
func (c *Codec) Parse(data []byte) (*Document, error) {
	return Parse(data)
}

// Validate checks doc against the codec's registry.
func (c *Codec) Validate(doc *Document) Issues {
	return Validate(doc, c.registry)
}

// Open parses data, validates it and applies the registered extensions.
//
// A fatal issue (an unsupported required extension) fails Open with an
// error matching ErrUnsupportedRequiredExtension; the parsed document and
// the issues are still returned for diagnostics. Advisory issues are
// returned without an error. When extensions changed the document, the
// issues describe the changed document.
func (c *Codec) Open(data []byte) (*Document, Issues, error) {
	doc, err := c.Parse(data)
	if err != nil {
		return nil, nil, err
	}

	issues := c.Validate(doc)
	if issues.Fatal() {
		return doc, issues, fatalError(issues)
	}

	applied, err := c.registry.Apply(doc)
	if err != nil {
		return doc, issues, err
	}
	if applied != doc {
		issues = c.Validate(applied)
	}
	return applied, issues, nil
}

func fatalError(issues Issues) error {
	var errs []error
	for _, i := range issues {
		if i.Fatal() {
			errs = append(errs, i)
		}
	}
	return errors.Join(errs...)
}

// Evaluate turns one entity into geometry using the codec's sampling.
// A nil r falls back to the resolver given with WithResolver.
func (c *Codec) Evaluate(ctx context.Context, e Entity, r BufferResolver) (*Geometry, error) {
	if r == nil {
		r = c.resolver
	}
	return Evaluate(ctx, e, r, c.sampling)
}

// Outline returns the outline of a polyline using the codec's outline
// options. See OutlinePolyline.
func (c *Codec) Outline(p *Polyline) ([]Ring, error) {
	return OutlinePolyline(p, c.outline)
}

// Result is the outcome of EvaluateAll. Geometry and Errors are parallel
// to the document's entities, in draw order; for each entity exactly one
// of the two is non-nil.
type Result struct {
	Geometry []*Geometry
	Errors   []error
	Issues   Issues
}

// Err joins the per-entity errors, or returns nil if every entity was
// evaluated.
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// Failed returns the indices of the entities without geometry.
func (r *Result) Failed() []int {
	var out []int
	for i, err := range r.Errors {
		if err != nil {
			out = append(out, i)
		}
	}
	return out
}

// EvaluateAll validates doc and evaluates every entity, several at a time.
//
// A fatal validation issue aborts the whole batch with an error matching
// ErrUnsupportedRequiredExtension. Otherwise failures are isolated: an
// entity with advisory issues is skipped, an entity whose evaluation fails
// or panics (in the evaluator or in r) gets an *EntityError, and the
// remaining entities are evaluated anyway.
// Once ctx is done, entities not yet started fail with ctx.Err().
//
// Curve samples are materialized, so the returned geometry no longer
// depends on the document.
func (c *Codec) EvaluateAll(ctx context.Context, doc *Document, r BufferResolver) (*Result, error) {
	issues := c.Validate(doc)
	if issues.Fatal() {
		return nil, fatalError(issues)
	}
	if err := c.sampling.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		r = c.resolver
	}

	n := len(doc.Entities)
	res := &Result{
		Geometry: make([]*Geometry, n),
		Errors:   make([]error, n),
		Issues:   issues,
	}

	workers := c.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool := parallel.NewWorkerPool(min(workers, max(n, 1)))
	defer pool.Close()

	pool.Run(ctx, n, func(ctx context.Context, i int) {
		e := doc.Entities[i]
		id := e.Header().ID
		defer func() {
			if v := recover(); v != nil {
				Logger().Error("jxf: entity evaluation panicked", "id", id, "panic", v)
				res.Geometry[i] = nil
				res.Errors[i] = entityErr(id, fmt.Errorf("%w: panic: %v", ErrInvalidEntity, v))
			}
		}()
		if own := issues.ForEntity(i); len(own) > 0 {
			Logger().Warn("jxf: skipping invalid entity", "id", id, "issues", len(own))
			res.Errors[i] = entityErr(id, own.Err())
			return
		}
		g, err := c.evaluateNow(ctx, e, r)
		if err != nil {
			Logger().Warn("jxf: entity evaluation failed", "id", id, "err", err)
			res.Errors[i] = err
			return
		}
		res.Geometry[i] = g
	}, func(i int) {
		res.Errors[i] = entityErr(doc.Entities[i].Header().ID, ctx.Err())
	})

	Logger().Debug("jxf: evaluated document",
		"entities", n,
		"failed", len(res.Failed()),
		"workers", pool.Workers())
	return res, nil
}

func (c *Codec) evaluateNow(ctx context.Context, e Entity, r BufferResolver) (*Geometry, error) {
	g, err := Evaluate(ctx, e, r, c.sampling)
	if err != nil {
		return nil, err
	}
	if g.Mesh == nil {
		g.Points = slices.Values(g.Collect())
	}
	return g, nil
}
