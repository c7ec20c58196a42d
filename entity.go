package jxf

// EntityKind is the wire discriminant of an entity.
type EntityKind string

// Entity kinds.
const (
	KindLine     EntityKind = "line"
	KindArc      EntityKind = "arc"
	KindPolyline EntityKind = "polyline"
	KindSpline   EntityKind = "spline"
	KindMesh     EntityKind = "mesh"
)

// Entity is one geometric object in a document.
//
// The set of implementations is closed: *Line, *Arc, *Polyline, *Spline and
// *Mesh. Consumers switch over these types exhaustively.
type Entity interface {
	// Kind returns the wire discriminant.
	Kind() EntityKind
	// Header returns the fields shared by all entities.
	Header() EntityHeader

	isEntity()
}

// EntityHeader holds the fields shared by all entity kinds.
type EntityHeader struct {
	ID         string   `json:"id"`
	Layer      string   `json:"layer,omitempty"`
	Attributes RawValue `json:"attributes,omitempty"`
}

// Header returns the shared fields.
func (h EntityHeader) Header() EntityHeader { return h }

// Line is a straight segment. A zero Thickness is an idealized zero-width
// line.
type Line struct {
	EntityHeader
	Start     Point
	End       Point
	Thickness float64
}

// Arc is a circular arc in the XY plane through Center, swept
// counter-clockwise from StartAngle to EndAngle (degrees). When EndAngle is
// less than StartAngle the sweep wraps through 360.
type Arc struct {
	EntityHeader
	Center     Point
	Radius     float64
	StartAngle float64
	EndAngle   float64
	Thickness  float64
}

// Default arc angles, a full circle.
const (
	DefaultStartAngle = 0.0
	DefaultEndAngle   = 360.0
)

// CapStyle is the shape of open polyline ends.
type CapStyle string

// Cap styles.
const (
	CapButt   CapStyle = "butt"
	CapRound  CapStyle = "round"
	CapSquare CapStyle = "square"
)

// JoinStyle is the shape of polyline corners.
type JoinStyle string

// Join styles.
const (
	JoinMiter JoinStyle = "miter"
	JoinRound JoinStyle = "round"
	JoinBevel JoinStyle = "bevel"
)

// Polyline is a sequence of connected segments. Cap and Join only matter
// when Thickness is positive.
type Polyline struct {
	EntityHeader
	Points    []Point
	Closed    bool
	Thickness float64
	Cap       CapStyle
	Join      JoinStyle
}

// Spline is a non-rational B-spline curve. Knots is nil when the document
// omits it; a uniform knot vector is synthesized at evaluation time.
type Spline struct {
	EntityHeader
	Degree        int
	ControlPoints []Point
	Knots         []float64
	Closed        bool
}

// Mesh is an indexed triangle mesh. Indices is nil when the document omits
// it; PositionBuffer is nil when there is no binary vertex data.
type Mesh struct {
	EntityHeader
	VertexCount    int
	FaceCount      int
	Indices        []int
	PositionBuffer *BinaryReference
}

func (*Line) Kind() EntityKind     { return KindLine }
func (*Arc) Kind() EntityKind      { return KindArc }
func (*Polyline) Kind() EntityKind { return KindPolyline }
func (*Spline) Kind() EntityKind   { return KindSpline }
func (*Mesh) Kind() EntityKind     { return KindMesh }

func (*Line) isEntity()     {}
func (*Arc) isEntity()      {}
func (*Polyline) isEntity() {}
func (*Spline) isEntity()   {}
func (*Mesh) isEntity()     {}

// Thickness returns the presentation thickness of a curve entity, or 0 for
// meshes.
func Thickness(e Entity) float64 {
	switch v := e.(type) {
	case *Line:
		return v.Thickness
	case *Arc:
		return v.Thickness
	case *Polyline:
		return v.Thickness
	default:
		return 0
	}
}
