// Package jxf reads, validates and evaluates JXF documents.
//
// # Overview
//
// JXF is a JSON exchange format for 2D/3D drafting geometry: lines, arcs,
// polylines, B-spline curves and indexed triangle meshes, grouped into
// layers. Bulk numeric data (mesh positions) lives in external binary
// buffers addressed by typed references, in the manner of glTF.
//
// # Quick Start
//
//	import "github.com/gogpu/jxf"
//
//	doc, err := jxf.Parse(data)
//	if err != nil {
//	    return err // *jxf.ParseError with the offending path
//	}
//	if issues := jxf.Validate(doc, nil); len(issues) > 0 {
//	    log.Print(issues)
//	}
//	g, err := jxf.Evaluate(ctx, doc.Entities[0], jxf.DirResolver{Dir: "."}, jxf.DefaultSampleConfig())
//	for p := range g.Points {
//	    fmt.Println(p.X, p.Y, p.Z)
//	}
//
// For whole documents, a Codec bundles extension handlers, sampling and a
// resolver, and evaluates entities concurrently:
//
//	c := jxf.New(jxf.WithSampling(jxf.Tolerance(0.05)))
//	doc, issues, err := c.Open(data)
//	res, err := c.EvaluateAll(ctx, doc, resolver)
//
// # Pipeline
//
// Parse checks shape and applies defaults; it fails on the first error.
// Validate checks cross-references and geometric constraints and reports
// every issue; only an unsupported required extension is fatal, all other
// issues disqualify just the entity they name. Evaluation is lazy and per
// entity: curves become restartable point sequences (iter.Seq), meshes are
// assembled from their resolved buffers.
//
// # Sampling
//
// Arcs and splines are sampled either with a fixed number of segments or
// with a chordal tolerance, see SampleConfig. Lines and polylines always
// yield their authored vertices.
//
// # Coordinate System
//
// Points are 3D; 2D points in a document are lifted to Z = 0. Arcs lie in
// the XY plane of their center, with angles in degrees measured
// counter-clockwise from +X. Polyline outlines are computed in the XY
// plane.
//
// # Concurrency
//
// Documents are immutable after Parse. All package functions are safe for
// concurrent use; binary buffers are only ever read through a
// BufferResolver, which is the single blocking point and honors the
// caller's context.
package jxf

// Version is the current version of the library.
const Version = "0.1.0"
