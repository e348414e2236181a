package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/meshdraw/pkg/kernel"
)

func TestBox(t *testing.T) {
	box, err := Box(100, 50, 25, 0)
	if err != nil {
		t.Fatalf("Box failed: %v", err)
	}
	mesh, err := ToMesh(box, 40)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	s := kernel.Summarize(mesh)
	// Marching cubes approximates the surface to within a cell.
	cell := 100.0 / 40
	want := [3]float64{100, 50, 25}
	got := [3]float64{s.Dimensions.X, s.Dimensions.Y, s.Dimensions.Z}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 2*cell {
			t.Errorf("dimension %d = %.3f, want %.1f ± %.1f", i, got[i], want[i], 2*cell)
		}
	}
	if s.Bounds.Min.X < -2*cell || s.Bounds.Min.Z < -2*cell {
		t.Errorf("box should start at the origin, min = %v", s.Bounds.Min)
	}
	t.Logf("box triangle count: %d", mesh.TriangleCount())
}

func TestCylinderStandsOnXY(t *testing.T) {
	cyl, err := Cylinder(50, 10)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	mesh, err := ToMesh(cyl, 0)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	s := kernel.Summarize(mesh)
	if math.Abs(s.Bounds.Min.Z) > 2 {
		t.Errorf("cylinder base z = %.3f, want ~0", s.Bounds.Min.Z)
	}
	if math.Abs(s.Dimensions.Z-50) > 2 {
		t.Errorf("cylinder height = %.3f, want ~50", s.Dimensions.Z)
	}
}

func TestSphereVolume(t *testing.T) {
	sph, err := Sphere(10)
	if err != nil {
		t.Fatalf("Sphere failed: %v", err)
	}
	mesh, err := ToMesh(sph, 60)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	s := kernel.Summarize(mesh)
	want := 4.0 / 3 * math.Pi * 1000
	if rel := math.Abs(math.Abs(s.Volume)-want) / want; rel > 0.05 {
		t.Errorf("sphere volume = %.1f, want %.1f (rel err %.3f)", s.Volume, want, rel)
	}
}

func TestInvalidDimensions(t *testing.T) {
	if _, err := Sphere(-1); err == nil {
		t.Error("Sphere(-1) should fail")
	}
}

func TestBuildersAll(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := Builders[name](20)
			if err != nil {
				t.Fatalf("builder failed: %v", err)
			}
			m, err := ToMesh(s, 24)
			if err != nil {
				t.Fatalf("ToMesh failed: %v", err)
			}
			if m.Name != name {
				t.Errorf("mesh name = %q, want %q", m.Name, name)
			}
		})
	}
}
