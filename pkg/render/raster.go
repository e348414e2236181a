package render

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/chazu/meshdraw/pkg/kernel"
	"github.com/chazu/meshdraw/pkg/view"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	xdraw "golang.org/x/image/draw"
)

// cancelStride is how many triangles or edges are processed between
// cancellation checks.
const cancelStride = 4096

// surface is one supersampled canvas with its depth buffer.
type surface struct {
	w, h  int
	color *image.RGBA
	depth []float32
	// depth range of the current frame, used for the edge visibility bias
	zmin, zmax float64
}

func newSurface(w, h int) *surface {
	return &surface{
		w:     w,
		h:     h,
		color: image.NewRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float32, w*h),
	}
}

func (s *surface) clear(bg color.RGBA) {
	pix := s.color.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}
	inf := float32(math.Inf(1))
	for i := range s.depth {
		s.depth[i] = inf
	}
	s.zmin, s.zmax = math.Inf(1), math.Inf(-1)
}

type point struct {
	x, y, z float64
}

func edgeFn(a, b point, x, y float64) float64 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

// shade returns the flat color of face i. Faces are lit from both sides and
// degenerate faces receive ambient light only.
func shade(sc *scene, i int, spec view.Spec, light, forward v3.Vec, st Style) color.RGBA {
	k := st.Ambient
	if sc.valid[i] {
		n := sc.normals[i]
		dir := forward
		if spec.Projection == view.Perspective {
			tri := sc.mesh.Triangle(i)
			dir = tri.V[0].Add(tri.V[1]).Add(tri.V[2]).DivScalar(3).Sub(spec.Position)
		}
		if n.Dot(dir) > 0 {
			n = n.Neg()
		}
		k += st.Diffuse * max(0, n.Dot(light))
	}
	k = min(k, 1)
	return color.RGBA{
		R: uint8(float64(st.Fill.R)*k + 0.5),
		G: uint8(float64(st.Fill.G)*k + 0.5),
		B: uint8(float64(st.Fill.B)*k + 0.5),
		A: st.Fill.A,
	}
}

// fill rasterizes every triangle with a depth test.
func (s *surface) fill(ctx context.Context, sc *scene, spec view.Spec, p *view.Projector, st Style) error {
	right, up, forward := spec.Basis()
	kl := st.KeyLight
	light := right.MulScalar(kl.X).Add(up.MulScalar(kl.Y)).Sub(forward.MulScalar(kl.Z))
	if l := light.Length(); l > 0 {
		light = light.DivScalar(l)
	}

	for i, tri := range sc.mesh.All() {
		if i%cancelStride == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		var pts [3]point
		visible := true
		for j, v := range tri.V {
			x, y, z, ok := p.Project(v)
			if !ok {
				visible = false
				break
			}
			pts[j] = point{x, y, z}
			s.zmin = min(s.zmin, z)
			s.zmax = max(s.zmax, z)
		}
		if !visible {
			continue
		}
		s.triangle(pts, shade(sc, i, spec, light, forward, st))
	}
	return nil
}

func (s *surface) triangle(pts [3]point, c color.RGBA) {
	a, b, cc := pts[0], pts[1], pts[2]
	area := edgeFn(a, b, cc.x, cc.y)
	if area == 0 || math.IsNaN(area) {
		return
	}
	minX := int(math.Max(0, math.Floor(min(a.x, b.x, cc.x))))
	maxX := int(math.Min(float64(s.w-1), math.Ceil(max(a.x, b.x, cc.x))))
	minY := int(math.Max(0, math.Floor(min(a.y, b.y, cc.y))))
	maxY := int(math.Min(float64(s.h-1), math.Ceil(max(a.y, b.y, cc.y))))

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edgeFn(b, cc, px, py) / area
			w1 := edgeFn(cc, a, px, py) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := float32(w0*a.z + w1*b.z + w2*cc.z)
			idx := y*s.w + x
			if z >= s.depth[idx] {
				continue
			}
			s.depth[idx] = z
			o := s.color.PixOffset(x, y)
			s.color.Pix[o], s.color.Pix[o+1], s.color.Pix[o+2], s.color.Pix[o+3] = c.R, c.G, c.B, c.A
		}
	}
}

// covers reports whether a point at depth z near (x, y) is not hidden behind
// the surface. The 3×3 neighborhood absorbs the depth slope of faces seen at
// grazing angles.
func (s *surface) covers(x, y, z, bias float64) bool {
	ix, iy := int(math.Floor(x)), int(math.Floor(y))
	if ix < 0 || iy < 0 || ix >= s.w || iy >= s.h {
		return false
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := ix+dx, iy+dy
			if nx < 0 || ny < 0 || nx >= s.w || ny >= s.h {
				continue
			}
			if z <= float64(s.depth[ny*s.w+nx])+bias {
				return true
			}
		}
	}
	return false
}

// visibleEdges samples each sharp edge once per pixel against the depth
// buffer and returns the visible runs in canvas coordinates.
func (s *surface) visibleEdges(ctx context.Context, edges []kernel.Segment, p *view.Projector) ([]Line, error) {
	bias := 1e-3 * (s.zmax - s.zmin)
	if !(bias > 0) {
		bias = 1e-9
	}
	var runs []Line
	for i, e := range edges {
		if i%cancelStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ax, ay, az, ok1 := p.Project(e[0])
		bx, by, bz, ok2 := p.Project(e[1])
		if !ok1 || !ok2 {
			continue
		}
		steps := int(math.Ceil(math.Hypot(bx-ax, by-ay)))
		steps = max(steps, 1)
		start, last := -1, -1
		flush := func() {
			if start >= 0 && last > start {
				t0, t1 := float64(start)/float64(steps), float64(last)/float64(steps)
				runs = append(runs, Line{
					A: v2.Vec{X: ax + (bx-ax)*t0, Y: ay + (by-ay)*t0},
					B: v2.Vec{X: ax + (bx-ax)*t1, Y: ay + (by-ay)*t1},
				})
			}
			start, last = -1, -1
		}
		for k := 0; k <= steps; k++ {
			t := float64(k) / float64(steps)
			if s.covers(ax+(bx-ax)*t, ay+(by-ay)*t, az+(bz-az)*t, bias) {
				if start < 0 {
					start = k
				}
				last = k
				continue
			}
			flush()
		}
		flush()
	}
	return runs, nil
}

// stroke draws the edge runs over the shaded fill.
func (s *surface) stroke(runs []Line, c color.RGBA, width float64) {
	if len(runs) == 0 {
		return
	}
	gc := draw2dimg.NewGraphicContext(s.color)
	gc.SetStrokeColor(c)
	gc.SetLineWidth(width)
	gc.SetLineCap(draw2d.RoundCap)
	gc.BeginPath()
	for _, r := range runs {
		gc.MoveTo(r.A.X, r.A.Y)
		gc.LineTo(r.B.X, r.B.Y)
	}
	gc.Stroke()
}

// downsample filters the canvas down to the output size into a new image.
func (s *surface) downsample(w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if s.w == w && s.h == h {
		xdraw.Copy(dst, image.Point{}, s.color, s.color.Bounds(), xdraw.Src, nil)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), s.color, s.color.Bounds(), xdraw.Src, nil)
	return dst
}
