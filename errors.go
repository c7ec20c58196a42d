package jxf

import (
	"errors"
	"fmt"

	"github.com/gogpu/jxf/internal/bufread"
	"github.com/gogpu/jxf/internal/curve"
)

// Sentinel errors. Match them with errors.Is; the typed errors below wrap
// them with the entity, uri or document path involved.
var (
	// ErrParse is returned when a document is not well-formed JSON or does
	// not match the JXF schema. No partial document is returned.
	ErrParse = errors.New("jxf: malformed document")

	// ErrMalformedBinaryReference is returned when a binary reference
	// addresses bytes outside its buffer or its length does not divide into
	// whole elements.
	ErrMalformedBinaryReference = bufread.ErrMalformedReference

	// ErrIncompatibleMeshLayout is returned when a mesh position buffer does
	// not decode into 3-component elements.
	ErrIncompatibleMeshLayout = errors.New("jxf: mesh position buffer is not 3-component")

	// ErrMeshSizeMismatch is returned when the decoded position count differs
	// from the mesh vertexCount.
	ErrMeshSizeMismatch = errors.New("jxf: mesh position count does not match vertexCount")

	// ErrIndexOutOfBounds is returned when a triangle index is not below
	// the mesh vertexCount.
	ErrIndexOutOfBounds = errors.New("jxf: mesh index out of bounds")

	// ErrInvalidIndexCount is returned when mesh indices do not form whole
	// triangles.
	ErrInvalidIndexCount = errors.New("jxf: mesh index count is not a multiple of 3")

	// ErrInvalidKnotVector is returned for knot vectors that are
	// non-monotonic, non-finite, of the wrong length or have an empty domain.
	ErrInvalidKnotVector = curve.ErrInvalidKnotVector

	// ErrInvalidEntity is returned when an entity violates a structural rule
	// that makes it impossible to evaluate (arc radius, spline degree).
	ErrInvalidEntity = errors.New("jxf: invalid entity")

	// ErrBufferUnavailable is returned when a BufferResolver fails to
	// produce the bytes for a uri.
	ErrBufferUnavailable = errors.New("jxf: buffer unavailable")

	// ErrUnsupportedRequiredExtension is returned when a document requires an
	// extension no registered handler supports. Evaluation is refused.
	ErrUnsupportedRequiredExtension = errors.New("jxf: unsupported required extension")

	// ErrInvalidSampleConfig is returned for an unknown sampling mode or a
	// non-positive sampling value.
	ErrInvalidSampleConfig = errors.New("jxf: invalid sample config")

	// ErrNoResolver is returned when a binary-backed entity is evaluated
	// without a BufferResolver.
	ErrNoResolver = errors.New("jxf: no buffer resolver")
)

// ParseError describes where in the document decoding failed.
type ParseError struct {
	Path string // JSON-path style location, e.g. "entities[3].radius"
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrParse, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrParse, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ParseError as ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// EntityError attributes an evaluation failure to one entity.
type EntityError struct {
	EntityID string
	Err      error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("jxf: entity %q: %v", e.EntityID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EntityError) Unwrap() error { return e.Err }

// BufferError reports a resolver failure for a uri. It always matches
// ErrBufferUnavailable so resolver failures are never confused with
// malformed data.
type BufferError struct {
	URI string
	Err error
}

func (e *BufferError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrBufferUnavailable, e.URI, e.Err)
}

// Unwrap returns the resolver's error.
func (e *BufferError) Unwrap() error { return e.Err }

// Is reports BufferError as ErrBufferUnavailable.
func (e *BufferError) Is(target error) bool { return target == ErrBufferUnavailable }

func entityErr(id string, err error) error {
	return &EntityError{EntityID: id, Err: err}
}
