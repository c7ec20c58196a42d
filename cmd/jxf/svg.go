package main

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/gogpu/jxf"
)

// defaultInk is used for entities without a layer or with an unknown color.
var defaultInk = color.RGBA{A: 0xff}

// svg writes a top view (XY plane, Y up) of every entity on a visible
// layer. Thick polylines are drawn as their filled outline.
func svg(w io.Writer, data []byte, o options) error {
	c := o.codec()
	doc, _, err := c.Open(data)
	if err != nil {
		return err
	}
	res, err := c.EvaluateAll(context.Background(), doc, nil)
	if err != nil {
		return err
	}

	var body strings.Builder
	bounds := jxf.EmptyBounds()
	for i, e := range doc.Entities {
		g := res.Geometry[i]
		if g == nil {
			continue
		}
		ink, visible := style(doc, e)
		if !visible {
			continue
		}
		bounds = bounds.Union(g.Bounds())
		hex := fmt.Sprintf("#%02x%02x%02x", ink.R, ink.G, ink.B)

		switch {
		case g.Mesh != nil:
			if g.Mesh.Unresolved {
				continue
			}
			for _, t := range g.Mesh.Triangles {
				p := g.Mesh.Positions
				fmt.Fprintf(&body, `<polygon points="%s" fill="%s" fill-opacity="0.3" stroke="%s" stroke-width="0.5" vector-effect="non-scaling-stroke"/>`+"\n",
					points([]jxf.Point{p[t[0]], p[t[1]], p[t[2]]}), hex, hex)
			}
		case g.Thickness > 0 && e.Kind() == jxf.KindPolyline:
			rings, err := c.Outline(e.(*jxf.Polyline))
			if err != nil {
				continue
			}
			var d strings.Builder
			for _, r := range rings {
				d.WriteString("M" + points(r) + "Z")
			}
			fmt.Fprintf(&body, `<path d="%s" fill="%s"/>`+"\n", d.String(), hex)
		default:
			fmt.Fprintf(&body, `<polyline points="%s" fill="none" stroke="%s" stroke-width="1" vector-effect="non-scaling-stroke"/>`+"\n",
				points(g.Collect()), hex)
		}
	}

	if bounds.IsEmpty() {
		bounds = jxf.EmptyBounds().Extend(jxf.Point{}).Extend(jxf.Point{X: 1, Y: 1})
	}
	width := bounds.Max.X - bounds.Min.X
	height := bounds.Max.Y - bounds.Min.Y
	pad := 0.05 * math.Max(math.Max(width, height), 1e-9)

	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%g %g %g %g">`+"\n",
		bounds.Min.X-pad, -bounds.Max.Y-pad, width+2*pad, height+2*pad)
	fmt.Fprintln(w, `<g transform="scale(1,-1)">`)
	io.WriteString(w, body.String())
	fmt.Fprintln(w, "</g>\n</svg>")
	return nil
}

func style(doc *jxf.Document, e jxf.Entity) (color.RGBA, bool) {
	id := e.Header().Layer
	if id == "" {
		return defaultInk, true
	}
	l, ok := doc.Layer(id)
	if !ok {
		return defaultInk, true
	}
	c, ok := l.RGBA()
	if !ok {
		c = defaultInk
	}
	return c, l.IsVisible()
}

func points(pts []jxf.Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%g,%g", p.X, p.Y)
	}
	return b.String()
}
