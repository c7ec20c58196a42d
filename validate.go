package jxf

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/jxf/internal/curve"
)

// IssueKind classifies a ValidationIssue.
type IssueKind string

// Issue kinds reported by Validate.
const (
	IssueDuplicateID                      IssueKind = "DuplicateId"
	IssueDanglingLayerRef                 IssueKind = "DanglingLayerRef"
	IssueInconsistentExtensionDeclaration IssueKind = "InconsistentExtensionDeclaration"
	IssueUnsupportedRequiredExtension     IssueKind = "UnsupportedRequiredExtension"
	IssueInvalidArcRadius                 IssueKind = "InvalidArcRadius"
	IssueInvalidSplineDegree              IssueKind = "InvalidSplineDegree"
	IssueInsufficientControlPoints        IssueKind = "InsufficientControlPoints"
	IssueInvalidKnotVector                IssueKind = "InvalidKnotVector"
	IssueNegativeCount                    IssueKind = "NegativeCount"
	IssueInvalidIndexCount                IssueKind = "InvalidIndexCount"
	IssueIndexOutOfBounds                 IssueKind = "IndexOutOfBounds"
	IssueMalformedBinaryReference         IssueKind = "MalformedBinaryReference"
	IssueIncompatibleMeshLayout           IssueKind = "IncompatibleMeshLayout"
	IssueMeshSizeMismatch                 IssueKind = "MeshSizeMismatch"
	IssueUnresolvedMeshIndices            IssueKind = "UnresolvedMeshIndices"
)

// issueErrors maps kinds to the sentinel an equivalent evaluation failure
// would return, so issues can be matched with errors.Is.
var issueErrors = map[IssueKind]error{
	IssueUnsupportedRequiredExtension: ErrUnsupportedRequiredExtension,
	IssueInvalidArcRadius:             ErrInvalidEntity,
	IssueInvalidSplineDegree:          ErrInvalidEntity,
	IssueInsufficientControlPoints:    ErrInvalidEntity,
	IssueInvalidKnotVector:            ErrInvalidKnotVector,
	IssueInvalidIndexCount:            ErrInvalidIndexCount,
	IssueIndexOutOfBounds:             ErrIndexOutOfBounds,
	IssueMalformedBinaryReference:     ErrMalformedBinaryReference,
	IssueIncompatibleMeshLayout:       ErrIncompatibleMeshLayout,
	IssueMeshSizeMismatch:             ErrMeshSizeMismatch,
}

// ValidationIssue is one structural problem found by Validate.
type ValidationIssue struct {
	Kind IssueKind
	// Path is a JSON-path style location, e.g. "entities[2].radius".
	Path string
	// Entity is the index of the offending entity, or -1 when the issue
	// concerns the document as a whole.
	Entity  int
	Message string
}

func (i ValidationIssue) Error() string {
	return fmt.Sprintf("jxf: %s: %s: %s", i.Path, i.Kind, i.Message)
}

// Unwrap returns the sentinel error corresponding to the issue kind, if any.
func (i ValidationIssue) Unwrap() error {
	return issueErrors[i.Kind]
}

// Fatal reports whether the issue makes the whole document unusable.
// Only an unsupported required extension is fatal; every other issue
// affects at most the entity it names.
func (i ValidationIssue) Fatal() bool {
	return i.Kind == IssueUnsupportedRequiredExtension
}

// Issues is the result of Validate. An empty Issues means the document is
// valid.
type Issues []ValidationIssue

// Fatal reports whether any issue is fatal.
func (is Issues) Fatal() bool {
	for _, i := range is {
		if i.Fatal() {
			return true
		}
	}
	return false
}

// ForEntity returns the issues attributed to the entity at index.
func (is Issues) ForEntity(index int) Issues {
	var out Issues
	for _, i := range is {
		if i.Entity == index {
			out = append(out, i)
		}
	}
	return out
}

// OfKind returns the issues of the given kind.
func (is Issues) OfKind(kind IssueKind) Issues {
	var out Issues
	for _, i := range is {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

// Err joins all issues into one error, or returns nil when there are none.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	errs := make([]error, len(is))
	for i := range is {
		errs[i] = is[i]
	}
	return errors.Join(errs...)
}

func (is Issues) String() string {
	var b strings.Builder
	for n, i := range is {
		if n > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(i.Error())
	}
	return b.String()
}

// ExtensionSupport reports which extensions a consumer implements.
// *Registry implements it.
type ExtensionSupport interface {
	Supports(name string) bool
}

// Validate checks the structural invariants of doc and returns every issue
// found. It never resolves or reads binary data. A nil support means no
// extension is supported.
func Validate(doc *Document, support ExtensionSupport) Issues {
	v := &validator{doc: doc, support: support}
	v.checkExtensions()
	v.checkLayers()
	v.checkEntities()

	Logger().Debug("jxf: validated document",
		"entities", len(doc.Entities),
		"issues", len(v.issues),
		"fatal", v.issues.Fatal())
	return v.issues
}

type validator struct {
	doc     *Document
	support ExtensionSupport
	issues  Issues
	layers  map[string]bool
}

func (v *validator) add(kind IssueKind, entity int, path, format string, args ...any) {
	v.issues = append(v.issues, ValidationIssue{
		Kind:    kind,
		Path:    path,
		Entity:  entity,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) checkExtensions() {
	used := make(map[string]bool, len(v.doc.ExtensionsUsed))
	for _, name := range v.doc.ExtensionsUsed {
		used[name] = true
	}
	for i, name := range v.doc.ExtensionsRequired {
		path := fmt.Sprintf("extensionsRequired[%d]", i)
		if !used[name] {
			v.add(IssueInconsistentExtensionDeclaration, -1, path,
				"extension %q is required but not listed in extensionsUsed", name)
		}
		if v.support == nil || !v.support.Supports(name) {
			v.add(IssueUnsupportedRequiredExtension, -1, path,
				"no handler for required extension %q", name)
		}
	}
}

func (v *validator) checkLayers() {
	v.layers = make(map[string]bool, len(v.doc.Layers))
	for i, l := range v.doc.Layers {
		if v.layers[l.ID] {
			v.add(IssueDuplicateID, -1, fmt.Sprintf("layers[%d].id", i), "duplicate layer id %q", l.ID)
			continue
		}
		v.layers[l.ID] = true
	}
}

func (v *validator) checkEntities() {
	seen := make(map[string]bool, len(v.doc.Entities))
	for i, e := range v.doc.Entities {
		path := fmt.Sprintf("entities[%d]", i)
		h := e.Header()
		if seen[h.ID] {
			v.add(IssueDuplicateID, i, path+".id", "duplicate entity id %q", h.ID)
		}
		seen[h.ID] = true

		if h.Layer != "" && !v.layers[h.Layer] {
			v.add(IssueDanglingLayerRef, i, path+".layer", "layer %q does not exist", h.Layer)
		}

		switch x := e.(type) {
		case *Line:
		case *Arc:
			v.checkArc(i, path, x)
		case *Polyline:
		case *Spline:
			v.checkSpline(i, path, x)
		case *Mesh:
			v.checkMesh(i, path, x)
		}
	}
}

func (v *validator) checkArc(i int, path string, a *Arc) {
	if !(a.Radius > 0) || math.IsInf(a.Radius, 0) {
		v.add(IssueInvalidArcRadius, i, path+".radius", "radius %v must be a positive number", a.Radius)
	}
}

func (v *validator) checkSpline(i int, path string, s *Spline) {
	if s.Degree < 1 {
		v.add(IssueInvalidSplineDegree, i, path+".degree", "degree %d must be at least 1", s.Degree)
		return
	}
	if n := len(s.ControlPoints); s.Degree > n-1 {
		v.add(IssueInsufficientControlPoints, i, path+".controlPoints",
			"%d control points, too few for degree %d", n, s.Degree)
	}
	if s.Knots != nil {
		if err := curve.CheckKnots(s.Knots, len(s.ControlPoints), s.Degree); err != nil {
			v.add(IssueInvalidKnotVector, i, path+".knots", "%v", err)
		}
	}
}

func (v *validator) checkMesh(i int, path string, m *Mesh) {
	if m.VertexCount < 0 {
		v.add(IssueNegativeCount, i, path+".vertexCount", "vertexCount %d is negative", m.VertexCount)
	}
	if m.FaceCount < 0 {
		v.add(IssueNegativeCount, i, path+".faceCount", "faceCount %d is negative", m.FaceCount)
	}

	if m.Indices != nil {
		if len(m.Indices)%3 != 0 {
			v.add(IssueInvalidIndexCount, i, path+".indices",
				"%d indices do not form whole triangles", len(m.Indices))
		}
		for k, idx := range m.Indices {
			if idx < 0 || idx >= m.VertexCount {
				v.add(IssueIndexOutOfBounds, i, fmt.Sprintf("%s.indices[%d]", path, k),
					"index %d is outside [0, %d)", idx, m.VertexCount)
				break
			}
		}
		if m.PositionBuffer == nil {
			v.add(IssueUnresolvedMeshIndices, i, path+".indices",
				"indices without positionBuffer have no vertex source")
		}
	}

	ref := m.PositionBuffer
	if ref == nil {
		return
	}
	bpath := path + ".positionBuffer"
	if ref.URI == "" {
		v.add(IssueMalformedBinaryReference, i, bpath+".uri", "uri is empty")
	}
	if err := ref.Check(); err != nil {
		v.add(IssueMalformedBinaryReference, i, bpath, "%v", err)
		return
	}
	if ref.Components != 3 {
		v.add(IssueIncompatibleMeshLayout, i, bpath+".components",
			"positions need 3 components, got %d", ref.Components)
		return
	}
	if n := ref.ElementCount(); n != m.VertexCount {
		v.add(IssueMeshSizeMismatch, i, bpath+".byteLength",
			"buffer holds %d positions, vertexCount is %d", n, m.VertexCount)
	}
}
