// Package engine runs the meshdraw pipeline: validate an uploaded STL, parse
// it, compute its geometric summary, plan the four cameras and render them.
// Each phase is also exposed on its own.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chazu/meshdraw/pkg/check"
	"github.com/chazu/meshdraw/pkg/config"
	"github.com/chazu/meshdraw/pkg/format"
	"github.com/chazu/meshdraw/pkg/kernel"
	"github.com/chazu/meshdraw/pkg/render"
	"github.com/chazu/meshdraw/pkg/stl"
	"github.com/chazu/meshdraw/pkg/view"
)

// Engine runs the pipeline. It is safe for concurrent use; every call works
// on its own data and render context.
type Engine struct {
	cfg     *config.Config
	log     *slog.Logger
	backend *render.Backend
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the configuration. The default is config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithBackend renders on b instead of the process-wide render.Default().
func WithBackend(b *render.Backend) Option {
	return func(e *Engine) { e.backend = b }
}

// WithTimeout bounds a whole Generate or Drawing call. Zero disables the
// limit; the caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{timeout: PipelineTimeout}
	for _, o := range opts {
		o(e)
	}
	if e.cfg == nil {
		e.cfg = config.Default()
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

// RenderOptions maps the render section of cfg onto backend options.
func RenderOptions(cfg *config.Config) render.Options {
	o := render.DefaultOptions()
	o.Supersample = cfg.Render.Supersample
	o.EdgeAngle = cfg.Render.EdgeAngle
	o.MaxSurfaces = cfg.Render.MaxContexts
	o.AcquireTimeout = time.Duration(cfg.Render.AcquireTimeout)
	return o
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

func (e *Engine) renderer() *render.Backend {
	if e.backend != nil {
		return e.backend
	}
	return render.Default()
}

func (e *Engine) formatOptions() format.Options {
	return format.Options{AllowEmpty: e.cfg.Format.AllowEmpty}
}

// Validate checks the size limit and STL structure and reports the dialect.
func (e *Engine) Validate(data []byte, ext string) (format.Format, error) {
	if limit := e.cfg.Format.MaxInputBytes; limit > 0 && int64(len(data)) > limit {
		return format.Unknown, fmt.Errorf("engine: validate: %w", &format.InvalidFormatError{
			Reason: fmt.Sprintf("input is %d bytes, limit is %d", len(data), limit),
		})
	}
	f, err := format.Validate(data, ext, e.formatOptions())
	if err != nil {
		return format.Unknown, fmt.Errorf("engine: validate: %w", err)
	}
	return f, nil
}

// Parse decodes validated data of dialect f.
func (e *Engine) Parse(data []byte, f format.Format) (*kernel.Mesh, error) {
	m, err := stl.Parse(data, f)
	if err != nil {
		return nil, fmt.Errorf("engine: parse: %w", err)
	}
	return m, nil
}

// Summarize computes the geometric summary.
func (e *Engine) Summarize(m *kernel.Mesh) kernel.Summary {
	return kernel.Summarize(m)
}

// Check inspects m for structural problems.
func (e *Engine) Check(m *kernel.Mesh, s kernel.Summary) check.Report {
	return check.Mesh(m, s, check.Options{AllowEmpty: e.cfg.Format.AllowEmpty})
}

// PlanViews computes the four cameras for a mesh centered on its bounding
// box center.
func (e *Engine) PlanViews(bb kernel.BoundingBox) view.Set {
	return view.Plan(centeredBounds(bb))
}

func centeredBounds(bb kernel.BoundingBox) kernel.BoundingBox {
	h := bb.Size().MulScalar(0.5)
	return kernel.BoundingBox{Min: h.MulScalar(-1), Max: h}
}

// RenderViews renders all four views of m. The mesh is centered on the
// summary's bounding box center first. Exactly one render context is
// acquired and it is released on every path.
func (e *Engine) RenderViews(ctx context.Context, m *kernel.Mesh, s kernel.Summary, set view.Set) (render.Views, error) {
	frames, err := e.renderFrames(ctx, m, s, set)
	if err != nil {
		return render.Views{}, err
	}
	var views render.Views
	for _, f := range frames {
		rv, err := render.Encode(f)
		if err != nil {
			return render.Views{}, fmt.Errorf("engine: %w", err)
		}
		views[rv.Kind] = rv
	}
	return views, nil
}

func (e *Engine) renderFrames(ctx context.Context, m *kernel.Mesh, s kernel.Summary, set view.Set) ([]*render.Frame, error) {
	surfaces := 1
	if e.cfg.Render.Concurrent {
		surfaces = len(set)
	}
	rc, err := e.renderer().Acquire(ctx, surfaces)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	defer rc.Release()

	if err := rc.Upload(kernel.Center(m, s.Center)); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	frames, err := rc.RenderAll(ctx, set[:])
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.log.Debug("rendered views", "views", len(frames), "surfaces", rc.Surfaces())
	return frames, nil
}

// prepared is the output of the CPU phases shared by Generate and Drawing.
type prepared struct {
	format  format.Format
	mesh    *kernel.Mesh
	summary kernel.Summary
	report  check.Report
	views   view.Set
}

func (e *Engine) prepare(data []byte, ext string) (*prepared, error) {
	f, err := e.Validate(data, ext)
	if err != nil {
		return nil, err
	}
	m, err := e.Parse(data, f)
	if err != nil {
		return nil, err
	}
	s := e.Summarize(m)
	e.log.Debug("parsed mesh",
		"format", f, "triangles", s.TriangleCount,
		"x", s.Dimensions.X, "y", s.Dimensions.Y, "z", s.Dimensions.Z)

	report := e.Check(m, s)
	if err := report.Err(); err != nil {
		return nil, fmt.Errorf("engine: check: %w", err)
	}
	for _, w := range report.Warnings {
		e.log.Warn("mesh warning", "code", w.Code, "message", w.Message)
	}
	return &prepared{
		format:  f,
		mesh:    m,
		summary: s,
		report:  report,
		views:   e.PlanViews(s.Bounds),
	}, nil
}

// Generate runs the whole pipeline on an uploaded file. Either all four
// views are returned or an error is.
func (e *Engine) Generate(ctx context.Context, data []byte, ext string) (*DrawingResult, error) {
	return run(ctx, e.timeout, func(ctx context.Context) (*DrawingResult, error) {
		p, err := e.prepare(data, ext)
		if err != nil {
			return nil, err
		}
		views, err := e.RenderViews(ctx, p.mesh, p.summary, p.views)
		if err != nil {
			return nil, err
		}
		return newResult(p, views), nil
	})
}
