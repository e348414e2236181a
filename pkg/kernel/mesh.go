package kernel

import (
	"iter"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triangle is a single facet: three vertex positions in winding order and the
// normal stored alongside them in the source file. The stored normal is kept
// for reference only; geometry code recomputes normals from the winding.
type Triangle struct {
	Normal v3.Vec
	V      [3]v3.Vec
	Attr   uint16 // binary STL attribute byte count, 0 for ASCII input
}

// Mesh is an ordered, immutable triangle soup. The triangle slice is owned by
// the mesh; callers read it through TriangleCount, Triangle and All.
type Mesh struct {
	Name      string
	triangles []Triangle
}

// NewMesh returns a mesh holding a copy of tris.
func NewMesh(name string, tris []Triangle) *Mesh {
	owned := make([]Triangle, len(tris))
	copy(owned, tris)
	return &Mesh{Name: name, triangles: owned}
}

// newMeshOwned adopts tris without copying. Only for slices built locally.
func newMeshOwned(name string, tris []Triangle) *Mesh {
	return &Mesh{Name: name, triangles: tris}
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.triangles)
}

// VertexCount returns the number of (unshared) vertices, three per triangle.
func (m *Mesh) VertexCount() int {
	return len(m.triangles) * 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.triangles) == 0
}

// Triangle returns the i-th triangle by value.
func (m *Mesh) Triangle(i int) Triangle {
	return m.triangles[i]
}

// All iterates over the triangles in file order.
func (m *Mesh) All() iter.Seq2[int, Triangle] {
	return func(yield func(int, Triangle) bool) {
		for i, t := range m.triangles {
			if !yield(i, t) {
				return
			}
		}
	}
}

// Flat is a flattened, GPU-style view of a mesh: vertices has 3 floats per
// vertex (x,y,z), normals has 3 floats per vertex, indices has 3 uint32s per
// triangle.
type Flat struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
}

// Flatten converts the mesh into flat arrays with recomputed face normals
// repeated per vertex. Degenerate faces get a zero normal.
func (m *Mesh) Flatten() *Flat {
	numVerts := m.VertexCount()
	f := &Flat{
		Vertices: make([]float32, 0, numVerts*3),
		Normals:  make([]float32, 0, numVerts*3),
		Indices:  make([]uint32, 0, numVerts),
	}
	for i, tri := range m.triangles {
		n, _ := FaceNormal(tri)
		for j := 0; j < 3; j++ {
			v := tri.V[j]
			f.Vertices = append(f.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			f.Normals = append(f.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			f.Indices = append(f.Indices, uint32(i*3+j))
		}
	}
	return f
}
