package jxf

import (
	"context"
	"fmt"
)

// MeshGeometry is an assembled triangle mesh.
type MeshGeometry struct {
	// Positions holds VertexCount points, or none when the mesh has no
	// position buffer.
	Positions []Point

	// Triangles index into Positions. Without indices the mesh is a point
	// cloud and Triangles is empty.
	Triangles [][3]int

	// Unresolved is set when the mesh has indices but no position buffer:
	// the triangles are bounds-checked against VertexCount but have no
	// vertex data to refer to.
	Unresolved bool
}

// TriangleCount returns the number of triangles.
func (m *MeshGeometry) TriangleCount() int {
	return len(m.Triangles)
}

// Bounds returns the axis-aligned box of the positions.
func (m *MeshGeometry) Bounds() Bounds {
	b := EmptyBounds()
	for _, p := range m.Positions {
		b = b.Extend(p)
	}
	return b
}

// AssembleMesh resolves, decodes and checks the vertex data of m.
//
// The position buffer is fetched through r in full before decoding. It must
// decode into exactly VertexCount 3-component elements, and every index
// must be in [0, VertexCount). Indices are never clamped.
//
// r may be nil when m has no position buffer.
func AssembleMesh(ctx context.Context, m *Mesh, r BufferResolver) (*MeshGeometry, error) {
	if m.VertexCount < 0 || m.FaceCount < 0 {
		return nil, fmt.Errorf("%w: negative vertexCount or faceCount", ErrInvalidEntity)
	}

	tris, err := triangles(m.Indices, m.VertexCount)
	if err != nil {
		return nil, err
	}
	g := &MeshGeometry{Triangles: tris}

	ref := m.PositionBuffer
	if ref == nil {
		g.Unresolved = m.Indices != nil
		return g, nil
	}

	// Reject an unusable layout before paying for the resolve.
	if err := ref.Check(); err != nil {
		return nil, err
	}
	if ref.Components != 3 {
		return nil, fmt.Errorf("%w: got %d components", ErrIncompatibleMeshLayout, ref.Components)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: mesh %q references %q", ErrNoResolver, m.ID, ref.URI)
	}

	data, err := r.Resolve(ctx, ref.URI)
	if err != nil {
		return nil, &BufferError{URI: ref.URI, Err: err}
	}
	elems, err := ReadBuffer(data, *ref)
	if err != nil {
		return nil, err
	}
	if n := elems.Len(); n != m.VertexCount {
		return nil, fmt.Errorf("%w: buffer holds %d positions, vertexCount is %d",
			ErrMeshSizeMismatch, n, m.VertexCount)
	}

	g.Positions = make([]Point, m.VertexCount)
	for i := range g.Positions {
		v := elems.At(i)
		g.Positions[i] = Point{X: v[0], Y: v[1], Z: v[2]}
	}

	Logger().Debug("jxf: assembled mesh",
		"id", m.ID,
		"vertices", len(g.Positions),
		"triangles", len(g.Triangles))
	return g, nil
}

func triangles(indices []int, vertexCount int) ([][3]int, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrInvalidIndexCount, len(indices))
	}
	tris := make([][3]int, 0, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		t := [3]int{indices[i], indices[i+1], indices[i+2]}
		for k, idx := range t {
			if idx < 0 || idx >= vertexCount {
				return nil, fmt.Errorf("%w: indices[%d] = %d, vertexCount is %d",
					ErrIndexOutOfBounds, i+k, idx, vertexCount)
			}
		}
		tris = append(tris, t)
	}
	return tris, nil
}
