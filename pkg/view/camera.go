package view

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func normalize(v v3.Vec) v3.Vec {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v3.Vec{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// Basis returns the orthonormal camera frame: right, true up and forward
// (from Position toward Target).
func (s Spec) Basis() (right, up, forward v3.Vec) {
	forward = normalize(s.Target.Sub(s.Position))
	right = normalize(forward.Cross(s.Up))
	up = right.Cross(forward)
	return right, up, forward
}

// Projector maps world points to raster coordinates for one camera.
type Projector struct {
	spec               Spec
	right, up, forward v3.Vec
	width, height      float64
	scaleX, scaleY     float64 // ortho: 1/half-extent, perspective: 1/tan
}

// Projector prepares s for projecting onto a width × height raster.
func (s Spec) Projector(width, height int) *Projector {
	p := &Projector{spec: s, width: float64(width), height: float64(height)}
	p.right, p.up, p.forward = s.Basis()
	if s.Projection == Perspective {
		t := math.Tan(s.FOV * math.Pi / 360)
		p.scaleY = 1 / t
		p.scaleX = 1 / (t * s.Aspect)
	} else {
		p.scaleY = 1 / s.HalfHeight
		p.scaleX = 1 / s.HalfWidth()
	}
	return p
}

// Project returns raster coordinates (origin top-left, y down) and a depth
// key. Depth grows with distance from the camera and is affine in raster
// space, so it can be interpolated linearly across a triangle. ok is false
// for points at or behind the perspective near plane.
func (p *Projector) Project(pt v3.Vec) (x, y, depth float64, ok bool) {
	rel := pt.Sub(p.spec.Position)
	cx := rel.Dot(p.right)
	cy := rel.Dot(p.up)
	cz := rel.Dot(p.forward)

	var nx, ny float64
	if p.spec.Projection == Perspective {
		if cz <= p.spec.Near {
			return 0, 0, 0, false
		}
		nx = cx * p.scaleX / cz
		ny = cy * p.scaleY / cz
		depth = -1 / cz
	} else {
		nx = cx * p.scaleX
		ny = cy * p.scaleY
		depth = cz
	}
	x = (nx + 1) / 2 * p.width
	y = (1 - ny) / 2 * p.height
	return x, y, depth, true
}

// Plane maps raster coordinates back to model-unit coordinates in the image
// plane of an orthographic camera: u along right, v along up, both measured
// from the view axis.
func (p *Projector) Plane(x, y float64) (u, v float64) {
	nx := x/p.width*2 - 1
	ny := 1 - y/p.height*2
	return nx / p.scaleX, ny / p.scaleY
}
