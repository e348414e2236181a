package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Edge is an undirected mesh edge with the indices of the triangles that use it.
type Edge struct {
	A, B  v3.Vec
	Faces []int
}

// Segment is a straight 3D line segment.
type Segment [2]v3.Vec

// Topology is the edge adjacency of a mesh. Vertices are matched by exact
// coordinates, which is how STL exporters repeat shared vertices.
type Topology struct {
	Edges       []Edge // in first-seen order
	Boundary    int    // edges used by exactly one triangle
	NonManifold int    // edges used by more than two triangles
}

// Watertight reports whether every edge is shared by exactly two triangles.
func (t Topology) Watertight() bool {
	return len(t.Edges) > 0 && t.Boundary == 0 && t.NonManifold == 0
}

type edgeKey [6]float64

func less(a, b v3.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

func makeEdgeKey(a, b v3.Vec) (edgeKey, v3.Vec, v3.Vec) {
	if less(b, a) {
		a, b = b, a
	}
	return edgeKey{a.X, a.Y, a.Z, b.X, b.Y, b.Z}, a, b
}

// EdgeTopology builds the edge adjacency of m. Zero-length edges (coincident
// vertices) are skipped.
func EdgeTopology(m *Mesh) Topology {
	var topo Topology
	index := make(map[edgeKey]int, len(m.triangles)*3/2)

	for fi, tri := range m.triangles {
		for j := 0; j < 3; j++ {
			a, b := tri.V[j], tri.V[(j+1)%3]
			if a == b {
				continue
			}
			key, lo, hi := makeEdgeKey(a, b)
			if ei, ok := index[key]; ok {
				topo.Edges[ei].Faces = append(topo.Edges[ei].Faces, fi)
				continue
			}
			index[key] = len(topo.Edges)
			topo.Edges = append(topo.Edges, Edge{A: lo, B: hi, Faces: []int{fi}})
		}
	}

	for _, e := range topo.Edges {
		switch {
		case len(e.Faces) == 1:
			topo.Boundary++
		case len(e.Faces) > 2:
			topo.NonManifold++
		}
	}
	return topo
}

// SharpEdges returns the feature edges of m: edges whose two adjoining faces
// meet at more than angleDeg degrees, plus boundary and non-manifold edges.
// Degenerate faces carry no normal and never make an edge sharp.
func SharpEdges(m *Mesh, angleDeg float64) []Segment {
	normals, valid := FaceNormals(m)
	return sharpEdges(EdgeTopology(m), normals, valid, angleDeg)
}

func sharpEdges(topo Topology, normals []v3.Vec, valid []bool, angleDeg float64) []Segment {
	cosThreshold := math.Cos(angleDeg * math.Pi / 180)

	var out []Segment
	for _, e := range topo.Edges {
		var faces []int
		for _, fi := range e.Faces {
			if valid[fi] {
				faces = append(faces, fi)
			}
		}
		switch {
		case len(faces) == 0:
			continue
		case len(e.Faces) == 1:
			out = append(out, Segment{e.A, e.B})
		case len(faces) == 2 && len(e.Faces) == 2:
			if normals[faces[0]].Dot(normals[faces[1]]) < cosThreshold {
				out = append(out, Segment{e.A, e.B})
			}
		case len(e.Faces) > 2:
			out = append(out, Segment{e.A, e.B})
		}
	}
	return out
}
