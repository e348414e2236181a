// Package view plans the four canonical cameras (front, side, top and
// isometric) for a mesh that has been centered on its bounding-box center.
// Every camera is a pure function of the bounding box.
package view

import (
	"fmt"
	"math"

	"github.com/chazu/meshdraw/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Output raster size shared by all views.
const (
	Width  = 800
	Height = 600
	Aspect = float64(Width) / float64(Height)
)

// Framing constants.
const (
	Padding           = 1.15 // orthographic margin around the silhouette
	IsoFOV            = 45.0 // degrees, vertical
	IsoDistanceFactor = 1.6
)

// IsoDirection is the camera offset direction of the isometric view.
var IsoDirection = v3.Vec{X: 0.7, Y: 0.5, Z: 0.7}

// Kind tags a canonical view.
type Kind int

const (
	Front Kind = iota
	Side
	Top
	Iso
)

// Kinds lists the canonical views in output order.
var Kinds = [...]Kind{Front, Side, Top, Iso}

func (k Kind) String() string {
	switch k {
	case Front:
		return "front"
	case Side:
		return "side"
	case Top:
		return "top"
	case Iso:
		return "iso"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Projection is the camera model.
type Projection int

const (
	Orthographic Projection = iota
	Perspective
)

func (p Projection) String() string {
	if p == Perspective {
		return "perspective"
	}
	return "orthographic"
}

// Spec is a fully determined camera. HalfHeight applies to orthographic
// cameras, FOV (vertical, degrees) to perspective ones.
type Spec struct {
	Kind       Kind
	Projection Projection
	Position   v3.Vec
	Target     v3.Vec
	Up         v3.Vec
	HalfHeight float64
	FOV        float64
	Aspect     float64
	Near, Far  float64
}

// HalfWidth returns the orthographic half-width.
func (s Spec) HalfWidth() float64 {
	return s.HalfHeight * s.Aspect
}

// Set holds one Spec per Kind, indexed by Kind.
type Set [len(Kinds)]Spec

// Get returns the spec for k.
func (s Set) Get(k Kind) Spec {
	return s[k]
}

// fitDim returns the largest extent, substituting 1 for a fully degenerate
// box so distances never collapse to zero.
func fitDim(bb kernel.BoundingBox) float64 {
	d := bb.MaxDim()
	if d <= 0 || math.IsNaN(d) {
		return 1
	}
	return d
}

// OrthoHalfHeight returns the half-height that fits a w × h silhouette into
// the output aspect ratio with Padding on every side.
func OrthoHalfHeight(w, h float64) float64 {
	m := max(w, h/Aspect, h, w*Aspect)
	return m * Padding / 2
}

// Plan computes the four cameras for a mesh centered on the origin.
func Plan(bb kernel.BoundingBox) Set {
	size := bb.Size()
	d := fitDim(bb)
	dist := 2 * d

	ortho := func(k Kind, forward, up v3.Vec, w, h float64) Spec {
		// Never tighter than the largest extent, whichever axis it lies on.
		hh := max(OrthoHalfHeight(w, h), d/2)
		return Spec{
			Kind:       k,
			Projection: Orthographic,
			Position:   forward.MulScalar(-dist),
			Up:         up,
			HalfHeight: hh,
			Aspect:     Aspect,
			Near:       dist - d,
			Far:        dist + d,
		}
	}

	var set Set
	// Front: camera on -Y looking toward +Y, +X to the right. This is the
	// engineering front view, where the -Y face is the one drawn; the top
	// view above it then shows +Y away from the viewer.
	set[Front] = ortho(Front, v3.Vec{Y: 1}, v3.Vec{Z: 1}, size.X, size.Z)
	// Side: camera on +X looking toward -X, +Y to the right.
	set[Side] = ortho(Side, v3.Vec{X: -1}, v3.Vec{Z: 1}, size.Y, size.Z)
	// Top: camera on +Z looking down, +X right and +Y up.
	set[Top] = ortho(Top, v3.Vec{Z: -1}, v3.Vec{Y: 1}, size.X, size.Y)

	isoDist := d / (2 * math.Tan(IsoFOV*math.Pi/360)) * IsoDistanceFactor
	set[Iso] = Spec{
		Kind:       Iso,
		Projection: Perspective,
		Position:   IsoDirection.MulScalar(isoDist),
		Up:         v3.Vec{Z: 1},
		FOV:        IsoFOV,
		Aspect:     Aspect,
		Near:       isoDist / 100,
		Far:        isoDist * 10,
	}
	return set
}
