// Package kernel holds the in-memory mesh model and the geometry processor:
// bounding boxes, signed volume, surface area, face normals, centering and
// edge topology. Everything here is a pure function of its inputs.
package kernel

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// BoundingBox is an axis-aligned box with Min <= Max component-wise.
type BoundingBox struct {
	Min v3.Vec
	Max v3.Vec
}

// Size returns the extent along each axis.
func (b BoundingBox) Size() v3.Vec {
	return b.Max.Sub(b.Min)
}

// Center returns the geometric center of the box.
func (b BoundingBox) Center() v3.Vec {
	return b.Box3().Center()
}

// MaxDim returns the largest extent.
func (b BoundingBox) MaxDim() float64 {
	return b.Size().MaxComponent()
}

// IsDegenerate reports whether the box has zero extent on every axis.
func (b BoundingBox) IsDegenerate() bool {
	s := b.Size()
	return s.X == 0 && s.Y == 0 && s.Z == 0
}

// IsFlat reports whether at least one axis has zero extent.
func (b BoundingBox) IsFlat() bool {
	s := b.Size()
	return s.X == 0 || s.Y == 0 || s.Z == 0
}

// Box3 converts to the sdfx box type.
func (b BoundingBox) Box3() sdf.Box3 {
	return sdf.Box3{Min: b.Min, Max: b.Max}
}

// Bounds computes the bounding box in a single pass. An empty mesh yields the
// zero box at the origin.
func Bounds(m *Mesh) BoundingBox {
	if m.IsEmpty() {
		return BoundingBox{}
	}
	first := m.triangles[0].V[0]
	bb := BoundingBox{Min: first, Max: first}
	for _, tri := range m.triangles {
		for _, v := range tri.V {
			bb.Min = bb.Min.Min(v)
			bb.Max = bb.Max.Max(v)
		}
	}
	return bb
}

// Summary is the derived, read-only geometric description of a mesh.
type Summary struct {
	Bounds        BoundingBox
	Dimensions    v3.Vec  // extents on each axis, mm
	Center        v3.Vec  // bounding-box center, used for all view fitting
	Volume        float64 // signed volume, mm³
	SurfaceArea   float64 // mm²
	TriangleCount int
	Degenerate    int // triangles with zero-length face normal
}

// VolumeCm3 returns the absolute volume in cm³. The value is only physically
// meaningful for watertight meshes.
func (s Summary) VolumeCm3() float64 {
	return math.Abs(s.Volume) / 1000
}

// IsDegenerate reports a fully degenerate mesh (zero extent on all axes).
func (s Summary) IsDegenerate() bool {
	return s.Bounds.IsDegenerate()
}

// Summarize computes the geometric summary of a mesh.
//
// Volume is the sum of signed tetrahedra spanned by the origin and each
// triangle. For open meshes the result depends on the origin and is not a
// physical volume.
func Summarize(m *Mesh) Summary {
	bb := Bounds(m)
	s := Summary{
		Bounds:        bb,
		Dimensions:    bb.Size(),
		Center:        bb.Center(),
		TriangleCount: m.TriangleCount(),
	}
	for _, tri := range m.triangles {
		v0, v1, v2 := tri.V[0], tri.V[1], tri.V[2]
		s.Volume += v0.Dot(v1.Cross(v2)) / 6
		c := v1.Sub(v0).Cross(v2.Sub(v0))
		l := c.Length()
		if l == 0 {
			s.Degenerate++
			continue
		}
		s.SurfaceArea += l / 2
	}
	return s
}

// FaceNormal recomputes the unit normal from the vertex winding,
// cross(v1-v0, v2-v0). ok is false for degenerate triangles, in which case the
// zero vector is returned rather than a normalized NaN.
func FaceNormal(t Triangle) (n v3.Vec, ok bool) {
	c := t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0]))
	l := c.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return v3.Vec{}, false
	}
	return v3.Vec{X: c.X / l, Y: c.Y / l, Z: c.Z / l}, true
}

// FaceNormals returns one recomputed normal per triangle plus a parallel
// validity slice.
func FaceNormals(m *Mesh) ([]v3.Vec, []bool) {
	normals := make([]v3.Vec, len(m.triangles))
	valid := make([]bool, len(m.triangles))
	for i, tri := range m.triangles {
		normals[i], valid[i] = FaceNormal(tri)
	}
	return normals, valid
}

// Center returns a new mesh translated so that c maps to the origin. Stored
// normals are carried over unchanged since translation does not affect them.
func Center(m *Mesh, c v3.Vec) *Mesh {
	xf := sdf.Translate3d(c.MulScalar(-1))
	tris := make([]Triangle, len(m.triangles))
	for i, tri := range m.triangles {
		tris[i] = Triangle{
			Normal: tri.Normal,
			Attr:   tri.Attr,
			V: [3]v3.Vec{
				xf.MulPosition(tri.V[0]),
				xf.MulPosition(tri.V[1]),
				xf.MulPosition(tri.V[2]),
			},
		}
	}
	return newMeshOwned(m.Name, tris)
}
