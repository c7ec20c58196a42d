// Command jxf inspects, validates and evaluates JXF documents.
//
// Usage:
//
//	jxf [flags] info     doc.jxf
//	jxf [flags] validate doc.jxf
//	jxf [flags] eval     doc.jxf
//	jxf [flags] svg      doc.jxf > preview.svg
//
// Binary buffers are read relative to the document's directory unless
// -buffers is given. Compressed buffers (zstd, gzip, .br) are inflated.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/gogpu/jxf"
)

type options struct {
	sampling jxf.SampleConfig
	buffers  string
	json     bool
}

func main() {
	var (
		samplingFile = flag.String("sampling", "", "YAML file with the sampling config")
		mode         = flag.String("mode", "", "sampling mode: fixedCount or tolerance")
		value        = flag.Float64("value", 0, "sampling value (segments or tolerance)")
		buffers      = flag.String("buffers", "", "directory holding binary buffers")
		asJSON       = flag.Bool("json", false, "print machine-readable output")
		verbose      = flag.Bool("v", false, "log debug output to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: jxf [flags] info|validate|eval|svg doc.jxf")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		jxf.SetLogger(newLogger(os.Stderr))
	}

	opts := options{buffers: *buffers, json: *asJSON}
	var err error
	opts.sampling, err = samplingConfig(*samplingFile, *mode, *value)
	if err != nil {
		fatal(err)
	}

	cmd, path := flag.Arg(0), flag.Arg(1)
	if opts.buffers == "" {
		opts.buffers = filepath.Dir(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fatal(err)
	}

	switch cmd {
	case "info":
		err = info(os.Stdout, data, opts)
	case "validate":
		err = validate(os.Stdout, data, opts)
	case "eval":
		err = eval(os.Stdout, data, opts)
	case "svg":
		err = svg(os.Stdout, data, opts)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

// newLogger writes human-readable logs to a terminal and JSON otherwise.
func newLogger(w *os.File) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if term.IsTerminal(int(w.Fd())) {
		return slog.New(slog.NewTextHandler(w, hopts))
	}
	return slog.New(slog.NewJSONHandler(w, hopts))
}

func samplingConfig(file, mode string, value float64) (jxf.SampleConfig, error) {
	cfg := jxf.DefaultSampleConfig()
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return cfg, err
		}
		if cfg, err = jxf.ParseSampleConfig(data); err != nil {
			return cfg, err
		}
	}
	if mode != "" {
		cfg.Mode = jxf.SampleMode(mode)
	}
	if value != 0 {
		cfg.Value = value
	}
	return cfg, cfg.Validate()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "jxf:", err)
	os.Exit(1)
}

func (o options) codec() *jxf.Codec {
	return jxf.New(
		jxf.WithSampling(o.sampling),
		jxf.WithResolver(jxf.NewCachingResolver(
			jxf.DecompressResolver{Next: jxf.DataURIResolver{Fallback: jxf.DirResolver{Dir: o.buffers}}},
			0,
		)),
	)
}

func info(w io.Writer, data []byte, o options) error {
	doc, err := jxf.Parse(data)
	if err != nil {
		return err
	}
	counts := make(map[jxf.EntityKind]int)
	for _, e := range doc.Entities {
		counts[e.Kind()]++
	}

	if o.json {
		return json.NewEncoder(w).Encode(map[string]any{
			"asset":    doc.Asset,
			"units":    doc.Units,
			"layers":   len(doc.Layers),
			"entities": counts,
			"used":     doc.ExtensionsUsed,
			"required": doc.ExtensionsRequired,
		})
	}

	fmt.Fprintf(w, "format:     %s %s\n", doc.Asset.Format, doc.Asset.Version)
	if doc.Asset.Generator != "" {
		fmt.Fprintf(w, "generator:  %s\n", doc.Asset.Generator)
	}
	fmt.Fprintf(w, "units:      %s\n", doc.Units)
	fmt.Fprintf(w, "layers:     %d\n", len(doc.Layers))
	fmt.Fprintf(w, "entities:   %d\n", len(doc.Entities))
	for _, k := range []jxf.EntityKind{jxf.KindLine, jxf.KindArc, jxf.KindPolyline, jxf.KindSpline, jxf.KindMesh} {
		if counts[k] > 0 {
			fmt.Fprintf(w, "  %-9s %d\n", k, counts[k])
		}
	}
	if len(doc.ExtensionsUsed) > 0 {
		fmt.Fprintf(w, "extensions: %v (required %v)\n", doc.ExtensionsUsed, doc.ExtensionsRequired)
	}
	return nil
}

func validate(w io.Writer, data []byte, o options) error {
	c := o.codec()
	doc, err := c.Parse(data)
	if err != nil {
		return err
	}
	issues := c.Validate(doc)

	if o.json {
		if err := json.NewEncoder(w).Encode(issues); err != nil {
			return err
		}
	} else {
		for _, i := range issues {
			fmt.Fprintln(w, i.Error())
		}
	}
	switch {
	case issues.Fatal():
		return errors.New("document cannot be evaluated")
	case len(issues) > 0:
		return fmt.Errorf("%d issues", len(issues))
	}
	return nil
}

type evalEntity struct {
	ID        string         `json:"id"`
	Kind      jxf.EntityKind `json:"kind"`
	Points    []jxf.Point    `json:"points,omitempty"`
	Triangles [][3]int       `json:"triangles,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func eval(w io.Writer, data []byte, o options) error {
	c := o.codec()
	doc, _, err := c.Open(data)
	if err != nil {
		return err
	}
	res, err := c.EvaluateAll(context.Background(), doc, nil)
	if err != nil {
		return err
	}

	out := make([]evalEntity, len(doc.Entities))
	for i, e := range doc.Entities {
		out[i] = evalEntity{ID: e.Header().ID, Kind: e.Kind()}
		if err := res.Errors[i]; err != nil {
			out[i].Error = err.Error()
			continue
		}
		g := res.Geometry[i]
		out[i].Points = g.Collect()
		if g.Mesh != nil {
			out[i].Triangles = g.Mesh.Triangles
		}
	}

	if o.json {
		return json.NewEncoder(w).Encode(out)
	}
	for _, e := range out {
		if e.Error != "" {
			fmt.Fprintf(w, "%-10s %-9s error: %s\n", e.ID, e.Kind, e.Error)
			continue
		}
		fmt.Fprintf(w, "%-10s %-9s %d points", e.ID, e.Kind, len(e.Points))
		if e.Kind == jxf.KindMesh {
			fmt.Fprintf(w, ", %d triangles", len(e.Triangles))
		}
		fmt.Fprintln(w)
	}
	return nil
}
