// Package sdfx bridges kernel meshes and the github.com/deadsy/sdfx SDF-based
// CAD library. It tessellates smooth sample solids with marching cubes and
// converts the resulting sdf.Triangle3 values into kernel meshes.
package sdfx

import (
	"fmt"
	"sort"

	"github.com/chazu/meshdraw/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 64

// Solid is a named sdfx solid ready for tessellation.
type Solid struct {
	Name string
	SDF  sdf.SDF3
}

// Box creates a box with the given dimensions and its minimum corner at the
// origin. sdf.Box3D centers the box at the origin, so we translate by
// half-dimensions.
func Box(x, y, z, round float64) (Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, round)
	if err != nil {
		return Solid{}, fmt.Errorf("sdfx: box: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return Solid{Name: "box", SDF: sdf.Transform3D(s, m)}, nil
}

// Cylinder creates a Z-axis cylinder standing on the XY plane.
func Cylinder(height, radius float64) (Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return Solid{}, fmt.Errorf("sdfx: cylinder: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{Z: height / 2})
	return Solid{Name: "cylinder", SDF: sdf.Transform3D(s, m)}, nil
}

// Sphere creates a sphere centered on the origin.
func Sphere(radius float64) (Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return Solid{}, fmt.Errorf("sdfx: sphere: %w", err)
	}
	return Solid{Name: "sphere", SDF: s}, nil
}

// Builders maps sample names to constructors taking a single size parameter.
var Builders = map[string]func(size float64) (Solid, error){
	"box": func(size float64) (Solid, error) {
		return Box(size, size*0.6, size*0.4, size*0.05)
	},
	"cylinder": func(size float64) (Solid, error) {
		return Cylinder(size, size/3)
	},
	"sphere": func(size float64) (Solid, error) {
		return Sphere(size / 2)
	},
}

// Names returns the sorted sample names.
func Names() []string {
	names := make([]string, 0, len(Builders))
	for n := range Builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ToMesh tessellates a solid using uniform marching cubes with the given
// number of cells along the longest axis.
func ToMesh(s Solid, cells int) (*kernel.Mesh, error) {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	triangles := render.ToTriangles(s.SDF, render.NewMarchingCubesUniform(cells))
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: %s tessellated to an empty mesh", s.Name)
	}
	return FromTriangles(s.Name, triangles), nil
}

// FromTriangles converts sdfx triangles into an immutable kernel mesh.
func FromTriangles(name string, triangles []*sdf.Triangle3) *kernel.Mesh {
	tris := make([]kernel.Triangle, 0, len(triangles))
	for _, t := range triangles {
		kt := kernel.Triangle{V: [3]v3.Vec{t[0], t[1], t[2]}}
		kt.Normal, _ = kernel.FaceNormal(kt)
		tris = append(tris, kt)
	}
	return kernel.NewMesh(name, tris)
}
