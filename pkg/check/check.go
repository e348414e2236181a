// Package check inspects a parsed mesh for structural problems. Findings are
// split into errors, which block further processing, and warnings, which are
// advisory and travel with the result.
package check

import (
	"errors"
	"fmt"

	"github.com/chazu/meshdraw/pkg/kernel"
)

// ErrDegenerateGeometry marks a mesh whose bounding box has zero extent on
// every axis. It is reported as a warning, never as a pipeline failure.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// ErrEmptyMesh blocks processing of meshes without triangles unless allowed.
var ErrEmptyMesh = errors.New("empty mesh")

// Finding codes.
const (
	CodeEmptyMesh           = "EMPTY_MESH"
	CodeDegenerateGeometry  = "DEGENERATE_GEOMETRY"
	CodeFlatGeometry        = "FLAT_GEOMETRY"
	CodeDegenerateTriangles = "DEGENERATE_TRIANGLES"
	CodeOpenEdges           = "OPEN_EDGES"
	CodeNonManifoldEdges    = "NON_MANIFOLD_EDGES"
	CodeInvertedWinding     = "INVERTED_WINDING"
)

// Finding is a single error or warning.
type Finding struct {
	Code    string
	Message string
	Count   int // number of offending elements, when meaningful
}

func (f Finding) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Unwrap maps codes onto package sentinels.
func (f Finding) Unwrap() error {
	switch f.Code {
	case CodeDegenerateGeometry:
		return ErrDegenerateGeometry
	case CodeEmptyMesh:
		return ErrEmptyMesh
	}
	return nil
}

// Report bundles the outcome of all checks.
type Report struct {
	Errors     []Finding
	Warnings   []Finding
	Watertight bool
}

// OK reports whether there are no blocking errors.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns the first blocking error, or nil.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// HasWarning reports whether a warning with the given code was raised.
func (r Report) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Options controls which conditions block processing.
type Options struct {
	AllowEmpty bool
}

// Mesh runs every check against m and its precomputed summary.
func Mesh(m *kernel.Mesh, s kernel.Summary, opts Options) Report {
	var r Report

	if m.IsEmpty() {
		f := Finding{Code: CodeEmptyMesh, Message: "mesh has no triangles"}
		if opts.AllowEmpty {
			r.Warnings = append(r.Warnings, f)
		} else {
			r.Errors = append(r.Errors, f)
		}
		return r
	}

	r.Warnings = append(r.Warnings, checkExtents(s)...)
	r.Warnings = append(r.Warnings, checkTriangles(s)...)

	topo := kernel.EdgeTopology(m)
	r.Watertight = topo.Watertight()
	r.Warnings = append(r.Warnings, checkTopology(topo)...)

	if r.Watertight && s.Volume < 0 {
		r.Warnings = append(r.Warnings, Finding{
			Code:    CodeInvertedWinding,
			Message: fmt.Sprintf("closed mesh has negative signed volume %.3f mm³; faces are wound inward", s.Volume),
		})
	}
	return r
}

// checkExtents flags fully degenerate and flat bounding boxes.
func checkExtents(s kernel.Summary) []Finding {
	switch {
	case s.Bounds.IsDegenerate():
		return []Finding{{
			Code:    CodeDegenerateGeometry,
			Message: "bounding box has zero extent on all axes",
		}}
	case s.Bounds.IsFlat():
		d := s.Dimensions
		return []Finding{{
			Code:    CodeFlatGeometry,
			Message: fmt.Sprintf("bounding box is flat (%.4g × %.4g × %.4g mm)", d.X, d.Y, d.Z),
		}}
	}
	return nil
}

// checkTriangles reports zero-area triangles. They are kept in the mesh.
func checkTriangles(s kernel.Summary) []Finding {
	if s.Degenerate == 0 {
		return nil
	}
	return []Finding{{
		Code:    CodeDegenerateTriangles,
		Message: fmt.Sprintf("%d of %d triangles have zero area", s.Degenerate, s.TriangleCount),
		Count:   s.Degenerate,
	}}
}

// checkTopology reports open and non-manifold edges. Either makes the signed
// volume unreliable.
func checkTopology(topo kernel.Topology) []Finding {
	var out []Finding
	if topo.Boundary > 0 {
		out = append(out, Finding{
			Code:    CodeOpenEdges,
			Message: fmt.Sprintf("%d edges belong to a single triangle; mesh is not watertight and volume is unreliable", topo.Boundary),
			Count:   topo.Boundary,
		})
	}
	if topo.NonManifold > 0 {
		out = append(out, Finding{
			Code:    CodeNonManifoldEdges,
			Message: fmt.Sprintf("%d edges are shared by more than two triangles", topo.NonManifold),
			Count:   topo.NonManifold,
		})
	}
	return out
}
