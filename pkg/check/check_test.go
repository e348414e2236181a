package check

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/meshdraw/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func run(m *kernel.Mesh, opts Options) Report {
	return Mesh(m, kernel.Summarize(m), opts)
}

func dropFirst(m *kernel.Mesh) *kernel.Mesh {
	var tris []kernel.Triangle
	for i, tri := range m.All() {
		if i > 0 {
			tris = append(tris, tri)
		}
	}
	return kernel.NewMesh(m.Name, tris)
}

func logFindings(t *testing.T, r Report) {
	t.Helper()
	for _, e := range r.Errors {
		t.Logf("  error: %s", e)
	}
	for _, w := range r.Warnings {
		t.Logf("  warning: %s", w)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCleanCube(t *testing.T) {
	r := run(kernel.Cube(10), Options{})
	if !r.OK() || len(r.Warnings) != 0 {
		t.Error("expected no findings for a clean cube")
		logFindings(t, r)
	}
	if !r.Watertight {
		t.Error("cube should be watertight")
	}
}

func TestEmptyMesh(t *testing.T) {
	empty := kernel.NewMesh("empty", nil)

	r := run(empty, Options{})
	if r.OK() {
		t.Fatal("empty mesh should be blocked by default")
	}
	if !errors.Is(r.Err(), ErrEmptyMesh) {
		t.Errorf("Err() = %v, want ErrEmptyMesh", r.Err())
	}

	r = run(empty, Options{AllowEmpty: true})
	if !r.OK() {
		t.Error("empty mesh should pass when allowed")
	}
	if !r.HasWarning(CodeEmptyMesh) {
		t.Error("expected EMPTY_MESH warning")
	}
}

func TestDegenerateGeometryIsWarning(t *testing.T) {
	p := v3.Vec{X: 3, Y: 3, Z: 3}
	m := kernel.NewMesh("point", []kernel.Triangle{{V: [3]v3.Vec{p, p, p}}})
	r := run(m, Options{})
	if !r.OK() {
		t.Error("degenerate geometry must not block processing")
		logFindings(t, r)
	}
	if !r.HasWarning(CodeDegenerateGeometry) {
		t.Fatal("expected DEGENERATE_GEOMETRY warning")
	}
	for _, w := range r.Warnings {
		if w.Code == CodeDegenerateGeometry && !errors.Is(w, ErrDegenerateGeometry) {
			t.Error("warning does not unwrap to ErrDegenerateGeometry")
		}
	}
	if !r.HasWarning(CodeDegenerateTriangles) {
		t.Error("expected DEGENERATE_TRIANGLES warning")
	}
}

func TestFlatPart(t *testing.T) {
	m := kernel.NewMesh("sheet", []kernel.Triangle{
		{V: [3]v3.Vec{{}, {X: 10}, {X: 10, Y: 5}}},
		{V: [3]v3.Vec{{}, {X: 10, Y: 5}, {Y: 5}}},
	})
	r := run(m, Options{})
	if !r.HasWarning(CodeFlatGeometry) {
		t.Error("expected FLAT_GEOMETRY warning")
		logFindings(t, r)
	}
	if r.HasWarning(CodeDegenerateGeometry) {
		t.Error("a flat part is not fully degenerate")
	}
	if !r.HasWarning(CodeOpenEdges) {
		t.Error("a single sheet has open edges")
	}
}

func TestOpenMesh(t *testing.T) {
	r := run(dropFirst(kernel.Cube(10)), Options{})
	if r.Watertight {
		t.Error("open mesh reported watertight")
	}
	found := false
	for _, w := range r.Warnings {
		if w.Code == CodeOpenEdges {
			found = true
			if w.Count != 3 {
				t.Errorf("open edge count = %d, want 3", w.Count)
			}
			if !strings.Contains(w.Message, "volume is unreliable") {
				t.Errorf("message %q should mention volume", w.Message)
			}
		}
	}
	if !found {
		t.Error("expected OPEN_EDGES warning")
	}
}

func TestNonManifold(t *testing.T) {
	// Three triangles hinged on one edge.
	a, b := v3.Vec{}, v3.Vec{X: 1}
	m := kernel.NewMesh("fan", []kernel.Triangle{
		{V: [3]v3.Vec{a, b, {Y: 1}}},
		{V: [3]v3.Vec{b, a, {Z: 1}}},
		{V: [3]v3.Vec{a, b, {Y: -1, Z: -1}}},
	})
	r := run(m, Options{})
	if !r.HasWarning(CodeNonManifoldEdges) {
		t.Error("expected NON_MANIFOLD_EDGES warning")
		logFindings(t, r)
	}
}

func TestInvertedWinding(t *testing.T) {
	var tris []kernel.Triangle
	for _, tri := range kernel.Cube(10).All() {
		tri.V[0], tri.V[1] = tri.V[1], tri.V[0]
		tris = append(tris, tri)
	}
	r := run(kernel.NewMesh("inside-out", tris), Options{})
	if !r.HasWarning(CodeInvertedWinding) {
		t.Error("expected INVERTED_WINDING warning")
		logFindings(t, r)
	}
}
