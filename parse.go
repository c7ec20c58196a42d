package jxf

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Parse decodes a JXF document from JSON.
//
// Parse checks the shape of the document: required fields are present,
// values have the right JSON types, the asset format is "JXF", entity types
// are known and enum literals (cap, join) are spelled exactly. It applies
// schema defaults and lifts 2D points to 3D. Cross-references and
// geometric constraints are left to Validate.
//
// On failure Parse returns a *ParseError (matching ErrParse) and no document.
func Parse(data []byte) (*Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &ParseError{Err: err}
	}

	doc, err := w.document()
	if err != nil {
		return nil, err
	}
	Logger().Debug("jxf: parsed document",
		"version", doc.Asset.Version,
		"layers", len(doc.Layers),
		"entities", len(doc.Entities))
	return doc, nil
}

// Marshal encodes a document as JSON. Parse(Marshal(doc)) yields a document
// equal to doc in every field.
func Marshal(doc *Document) ([]byte, error) {
	w := wireDocument{
		Asset:              &doc.Asset,
		Units:              &doc.Units,
		Layers:             doc.Layers,
		Extensions:         doc.Extensions,
		ExtensionsUsed:     doc.ExtensionsUsed,
		ExtensionsRequired: doc.ExtensionsRequired,
		Metadata:           doc.Metadata,
	}
	entities := make([]json.RawMessage, len(doc.Entities))
	for i, e := range doc.Entities {
		raw, err := marshalEntity(e)
		if err != nil {
			return nil, fmt.Errorf("jxf: entities[%d]: %w", i, err)
		}
		entities[i] = raw
	}
	w.Entities = &entities
	return json.Marshal(w)
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	return Marshal(d)
}

// UnmarshalJSON implements json.Unmarshaler with the rules of Parse.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

type wireDocument struct {
	Asset              *Asset              `json:"asset"`
	Units              *string             `json:"units"`
	Layers             []Layer             `json:"layers,omitempty"`
	Entities           *[]json.RawMessage  `json:"entities"`
	Extensions         map[string]RawValue `json:"extensions,omitempty"`
	ExtensionsUsed     []string            `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string            `json:"extensionsRequired,omitempty"`
	Metadata           RawValue            `json:"metadata,omitempty"`
}

var errMissing = errors.New("required field is missing")

func missing(path string) error {
	return &ParseError{Path: path, Err: errMissing}
}

func (w *wireDocument) document() (*Document, error) {
	switch {
	case w.Asset == nil:
		return nil, missing("asset")
	case w.Asset.Format != FormatTag:
		return nil, &ParseError{Path: "asset.format", Err: fmt.Errorf("got %q, want %q", w.Asset.Format, FormatTag)}
	case w.Asset.Version == "":
		return nil, missing("asset.version")
	case w.Units == nil:
		return nil, missing("units")
	case w.Entities == nil:
		return nil, missing("entities")
	}

	for i, l := range w.Layers {
		if l.ID == "" {
			return nil, missing(fmt.Sprintf("layers[%d].id", i))
		}
	}

	doc := &Document{
		Asset:              *w.Asset,
		Units:              *w.Units,
		Layers:             w.Layers,
		Entities:           make([]Entity, 0, len(*w.Entities)),
		Extensions:         w.Extensions,
		ExtensionsUsed:     w.ExtensionsUsed,
		ExtensionsRequired: w.ExtensionsRequired,
		Metadata:           w.Metadata,
	}
	for i, raw := range *w.Entities {
		e, err := parseEntity(raw, fmt.Sprintf("entities[%d]", i))
		if err != nil {
			return nil, err
		}
		doc.Entities = append(doc.Entities, e)
	}
	return doc, nil
}

// wireHeader carries the discriminant and shared entity fields.
type wireHeader struct {
	Type       *string  `json:"type"`
	ID         *string  `json:"id"`
	Layer      string   `json:"layer,omitempty"`
	Attributes RawValue `json:"attributes,omitempty"`
}

type wireLine struct {
	wireHeader
	Start     *Point  `json:"start"`
	End       *Point  `json:"end"`
	Thickness float64 `json:"thickness,omitempty"`
}

type wireArc struct {
	wireHeader
	Center     *Point   `json:"center"`
	Radius     *float64 `json:"radius"`
	StartAngle *float64 `json:"startAngle,omitempty"`
	EndAngle   *float64 `json:"endAngle,omitempty"`
	Thickness  float64  `json:"thickness,omitempty"`
}

type wirePolyline struct {
	wireHeader
	Points    *[]Point  `json:"points"`
	Closed    bool      `json:"closed,omitempty"`
	Thickness float64   `json:"thickness,omitempty"`
	Cap       CapStyle  `json:"cap,omitempty"`
	Join      JoinStyle `json:"join,omitempty"`
}

type wireSpline struct {
	wireHeader
	Degree        *int       `json:"degree"`
	ControlPoints *[]Point   `json:"controlPoints"`
	Knots         *[]float64 `json:"knots,omitempty"`
	Closed        bool       `json:"closed,omitempty"`
}

type wireMesh struct {
	wireHeader
	VertexCount    *int             `json:"vertexCount"`
	FaceCount      *int             `json:"faceCount"`
	Indices        *[]int           `json:"indices,omitempty"`
	PositionBuffer *BinaryReference `json:"positionBuffer,omitempty"`
}

func parseEntity(raw json.RawMessage, path string) (Entity, error) {
	var h wireHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if h.Type == nil {
		return nil, missing(path + ".type")
	}
	if h.ID == nil || *h.ID == "" {
		return nil, missing(path + ".id")
	}
	header := EntityHeader{ID: *h.ID, Layer: h.Layer, Attributes: h.Attributes}

	decode := func(v any) error {
		if err := json.Unmarshal(raw, v); err != nil {
			return &ParseError{Path: path, Err: err}
		}
		return nil
	}

	switch EntityKind(*h.Type) {
	case KindLine:
		var w wireLine
		if err := decode(&w); err != nil {
			return nil, err
		}
		switch {
		case w.Start == nil:
			return nil, missing(path + ".start")
		case w.End == nil:
			return nil, missing(path + ".end")
		}
		return &Line{EntityHeader: header, Start: *w.Start, End: *w.End, Thickness: w.Thickness}, nil

	case KindArc:
		var w wireArc
		if err := decode(&w); err != nil {
			return nil, err
		}
		switch {
		case w.Center == nil:
			return nil, missing(path + ".center")
		case w.Radius == nil:
			return nil, missing(path + ".radius")
		}
		a := &Arc{
			EntityHeader: header,
			Center:       *w.Center,
			Radius:       *w.Radius,
			StartAngle:   DefaultStartAngle,
			EndAngle:     DefaultEndAngle,
			Thickness:    w.Thickness,
		}
		if w.StartAngle != nil {
			a.StartAngle = *w.StartAngle
		}
		if w.EndAngle != nil {
			a.EndAngle = *w.EndAngle
		}
		return a, nil

	case KindPolyline:
		var w wirePolyline
		if err := decode(&w); err != nil {
			return nil, err
		}
		if w.Points == nil {
			return nil, missing(path + ".points")
		}
		p := &Polyline{
			EntityHeader: header,
			Points:       *w.Points,
			Closed:       w.Closed,
			Thickness:    w.Thickness,
			Cap:          CapButt,
			Join:         JoinMiter,
		}
		if w.Cap != "" {
			if !validCap(w.Cap) {
				return nil, &ParseError{Path: path + ".cap", Err: fmt.Errorf("unknown cap style %q", w.Cap)}
			}
			p.Cap = w.Cap
		}
		if w.Join != "" {
			if !validJoin(w.Join) {
				return nil, &ParseError{Path: path + ".join", Err: fmt.Errorf("unknown join style %q", w.Join)}
			}
			p.Join = w.Join
		}
		return p, nil

	case KindSpline:
		var w wireSpline
		if err := decode(&w); err != nil {
			return nil, err
		}
		switch {
		case w.Degree == nil:
			return nil, missing(path + ".degree")
		case w.ControlPoints == nil:
			return nil, missing(path + ".controlPoints")
		}
		s := &Spline{
			EntityHeader:  header,
			Degree:        *w.Degree,
			ControlPoints: *w.ControlPoints,
			Closed:        w.Closed,
		}
		if w.Knots != nil {
			s.Knots = *w.Knots
			if s.Knots == nil {
				s.Knots = []float64{}
			}
		}
		return s, nil

	case KindMesh:
		var w wireMesh
		if err := decode(&w); err != nil {
			return nil, err
		}
		switch {
		case w.VertexCount == nil:
			return nil, missing(path + ".vertexCount")
		case w.FaceCount == nil:
			return nil, missing(path + ".faceCount")
		}
		m := &Mesh{
			EntityHeader:   header,
			VertexCount:    *w.VertexCount,
			FaceCount:      *w.FaceCount,
			PositionBuffer: w.PositionBuffer,
		}
		if w.Indices != nil {
			m.Indices = *w.Indices
			if m.Indices == nil {
				m.Indices = []int{}
			}
		}
		return m, nil

	default:
		return nil, &ParseError{Path: path + ".type", Err: fmt.Errorf("unknown entity type %q", *h.Type)}
	}
}

func validCap(c CapStyle) bool {
	return c == CapButt || c == CapRound || c == CapSquare
}

func validJoin(j JoinStyle) bool {
	return j == JoinMiter || j == JoinRound || j == JoinBevel
}

func marshalEntity(e Entity) (json.RawMessage, error) {
	h := e.Header()
	kind := string(e.Kind())
	id := h.ID
	header := wireHeader{Type: &kind, ID: &id, Layer: h.Layer, Attributes: h.Attributes}

	var v any
	switch x := e.(type) {
	case *Line:
		v = wireLine{wireHeader: header, Start: &x.Start, End: &x.End, Thickness: x.Thickness}
	case *Arc:
		v = wireArc{
			wireHeader: header,
			Center:     &x.Center,
			Radius:     &x.Radius,
			StartAngle: &x.StartAngle,
			EndAngle:   &x.EndAngle,
			Thickness:  x.Thickness,
		}
	case *Polyline:
		v = wirePolyline{
			wireHeader: header,
			Points:     nonNil(x.Points),
			Closed:     x.Closed,
			Thickness:  x.Thickness,
			Cap:        x.Cap,
			Join:       x.Join,
		}
	case *Spline:
		w := wireSpline{wireHeader: header, Degree: &x.Degree, ControlPoints: nonNil(x.ControlPoints), Closed: x.Closed}
		if x.Knots != nil {
			w.Knots = &x.Knots
		}
		v = w
	case *Mesh:
		w := wireMesh{
			wireHeader:     header,
			VertexCount:    &x.VertexCount,
			FaceCount:      &x.FaceCount,
			PositionBuffer: x.PositionBuffer,
		}
		if x.Indices != nil {
			w.Indices = &x.Indices
		}
		v = w
	default:
		return nil, fmt.Errorf("unknown entity type %T", e)
	}
	return json.Marshal(v)
}

// nonNil keeps required arrays present on the wire.
func nonNil(pts []Point) *[]Point {
	if pts == nil {
		pts = []Point{}
	}
	return &pts
}
