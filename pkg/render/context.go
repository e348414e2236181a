package render

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/chazu/meshdraw/pkg/kernel"
	"github.com/chazu/meshdraw/pkg/view"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"golang.org/x/sync/errgroup"
)

// Line is a visible edge run.
type Line struct {
	A, B v2.Vec
}

// Frame is one rendered camera.
type Frame struct {
	Spec  view.Spec
	Image *image.RGBA
	// Lines are the visible sharp edges in output raster coordinates.
	Lines []Line
}

// PlaneLines returns Lines mapped back into model units on the image plane
// of an orthographic camera. Perspective frames return nil.
func (f *Frame) PlaneLines() []Line {
	if f.Spec.Projection != view.Orthographic {
		return nil
	}
	b := f.Image.Bounds()
	p := f.Spec.Projector(b.Dx(), b.Dy())
	out := make([]Line, len(f.Lines))
	for i, l := range f.Lines {
		ax, ay := p.Plane(l.A.X, l.A.Y)
		bx, by := p.Plane(l.B.X, l.B.Y)
		out[i] = Line{A: v2.Vec{X: ax, Y: ay}, B: v2.Vec{X: bx, Y: by}}
	}
	return out
}

// scene is the per-context geometry upload: the mesh plus everything derived
// from it that does not depend on the camera.
type scene struct {
	mesh    *kernel.Mesh
	normals []v3.Vec
	valid   []bool
	edges   []kernel.Segment
}

// Context is a scoped claim on one or more canvases. It is not safe for
// concurrent use. Release is idempotent.
type Context struct {
	backend  *Backend
	surfaces []*surface
	scene    *scene
	released atomic.Bool
}

// Surfaces returns the number of canvases owned by the context.
func (c *Context) Surfaces() int {
	return len(c.surfaces)
}

// Upload prepares m for rendering, replacing any previous upload.
func (c *Context) Upload(m *kernel.Mesh) error {
	if c.released.Load() {
		return ErrReleased
	}
	normals, valid := kernel.FaceNormals(m)
	c.scene = &scene{
		mesh:    m,
		normals: normals,
		valid:   valid,
		edges:   kernel.SharpEdges(m, c.backend.opts.EdgeAngle),
	}
	return nil
}

// Render draws the uploaded mesh through one camera.
func (c *Context) Render(ctx context.Context, spec view.Spec) (*Frame, error) {
	frames, err := c.RenderAll(ctx, []view.Spec{spec})
	if err != nil {
		return nil, err
	}
	return frames[0], nil
}

// RenderAll draws every camera in specs, spreading the work over the
// context's canvases. Either every frame is returned or none is.
func (c *Context) RenderAll(ctx context.Context, specs []view.Spec) ([]*Frame, error) {
	if c.released.Load() {
		return nil, ErrReleased
	}
	if c.scene == nil {
		return nil, fmt.Errorf("render: no mesh uploaded")
	}

	frames := make([]*Frame, len(specs))
	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range c.surfaces[:min(len(c.surfaces), max(len(specs), 1))] {
		g.Go(func() error {
			for i := range jobs {
				f, err := c.draw(gctx, s, specs[i])
				if err != nil {
					return fmt.Errorf("render %v view: %w", specs[i].Kind, err)
				}
				frames[i] = f
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		for i := range specs {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func (c *Context) draw(ctx context.Context, s *surface, spec view.Spec) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := c.backend.opts
	s.clear(o.Style.Background)
	p := spec.Projector(s.w, s.h)
	if err := s.fill(ctx, c.scene, spec, p, o.Style); err != nil {
		return nil, err
	}
	runs, err := s.visibleEdges(ctx, c.scene.edges, p)
	if err != nil {
		return nil, err
	}
	s.stroke(runs, o.Style.Edge, o.Style.LineWidth*float64(o.Supersample))

	f := &Frame{
		Spec:  spec,
		Image: s.downsample(o.Width, o.Height),
		Lines: make([]Line, len(runs)),
	}
	k := 1 / float64(o.Supersample)
	for i, r := range runs {
		f.Lines[i] = Line{A: r.A.MulScalar(k), B: r.B.MulScalar(k)}
	}
	return f, nil
}

// Release returns the canvases to the backend and drops the uploaded mesh.
// Only the first call has any effect.
func (c *Context) Release() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}
	c.scene = nil
	c.backend.release(c.surfaces)
	c.surfaces = nil
}
