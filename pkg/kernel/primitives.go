package kernel

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Primitives build exact, watertight, outward-wound meshes. They are used for
// sample output and as reference solids with known volume.

func tri(a, b, c v3.Vec) Triangle {
	t := Triangle{V: [3]v3.Vec{a, b, c}}
	t.Normal, _ = FaceNormal(t)
	return t
}

func quad(a, b, c, d v3.Vec) []Triangle {
	return []Triangle{tri(a, b, c), tri(a, c, d)}
}

// Box creates a 12-triangle box with its minimum corner at the origin.
func Box(x, y, z float64) *Mesh {
	p := func(i, j, k float64) v3.Vec { return v3.Vec{X: i * x, Y: j * y, Z: k * z} }

	var tris []Triangle
	tris = append(tris, quad(p(0, 0, 0), p(0, 1, 0), p(1, 1, 0), p(1, 0, 0))...) // bottom -Z
	tris = append(tris, quad(p(0, 0, 1), p(1, 0, 1), p(1, 1, 1), p(0, 1, 1))...) // top +Z
	tris = append(tris, quad(p(0, 0, 0), p(1, 0, 0), p(1, 0, 1), p(0, 0, 1))...) // front -Y
	tris = append(tris, quad(p(0, 1, 0), p(0, 1, 1), p(1, 1, 1), p(1, 1, 0))...) // back +Y
	tris = append(tris, quad(p(0, 0, 0), p(0, 0, 1), p(0, 1, 1), p(0, 1, 0))...) // left -X
	tris = append(tris, quad(p(1, 0, 0), p(1, 1, 0), p(1, 1, 1), p(1, 0, 1))...) // right +X
	return newMeshOwned("box", tris)
}

// Cube creates a box with equal edges.
func Cube(edge float64) *Mesh {
	m := Box(edge, edge, edge)
	m.Name = "cube"
	return m
}

// Pyramid creates a square pyramid with its base centered on the origin in the
// XY plane and its apex at (0, 0, height). Each base edge is split at its
// midpoint, so the base is a 6-triangle fan and each side face has two
// triangles: 14 triangles in total.
func Pyramid(base, height float64) *Mesh {
	h := base / 2
	apex := v3.Vec{Z: height}
	// Boundary of the base, counter-clockwise seen from +Z.
	ring := []v3.Vec{
		{X: -h, Y: -h}, {X: 0, Y: -h},
		{X: h, Y: -h}, {X: h, Y: 0},
		{X: h, Y: h}, {X: 0, Y: h},
		{X: -h, Y: h}, {X: -h, Y: 0},
	}

	var tris []Triangle
	// Base faces -Z: fan from the front midpoint, wound clockwise from above.
	hub := ring[1]
	for i := 2; i < len(ring); i++ {
		next := ring[(i+1)%len(ring)]
		tris = append(tris, tri(hub, next, ring[i]))
	}
	// Sides.
	for i := 0; i < len(ring); i++ {
		tris = append(tris, tri(ring[i], ring[(i+1)%len(ring)], apex))
	}
	return newMeshOwned("pyramid", tris)
}
