package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chazu/meshdraw/pkg/check"
	"github.com/chazu/meshdraw/pkg/drawing"
	"github.com/chazu/meshdraw/pkg/format"
	"github.com/chazu/meshdraw/pkg/kernel"
	"github.com/chazu/meshdraw/pkg/render"
	"github.com/chazu/meshdraw/pkg/view"
)

// Metadata is the JSON summary published alongside the rendered views.
type Metadata struct {
	DimensionX    float64 `json:"dimensionX"`
	DimensionY    float64 `json:"dimensionY"`
	DimensionZ    float64 `json:"dimensionZ"`
	VolumeCm3     float64 `json:"volumeCm3"`
	TriangleCount int     `json:"triangleCount"`
}

// NewMetadata extracts the published fields from s.
func NewMetadata(s kernel.Summary) Metadata {
	return Metadata{
		DimensionX:    s.Dimensions.X,
		DimensionY:    s.Dimensions.Y,
		DimensionZ:    s.Dimensions.Z,
		VolumeCm3:     s.VolumeCm3(),
		TriangleCount: s.TriangleCount,
	}
}

// JSON encodes m.
func (m Metadata) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// DrawingResult is the output of a successful Generate.
type DrawingResult struct {
	Front, Side, Top, Iso render.RenderedView

	Format   format.Format
	Mesh     *kernel.Mesh // as parsed, not centered
	Summary  kernel.Summary
	Metadata Metadata
	// Warnings are advisory findings such as degenerate geometry. They
	// never cause Generate to fail.
	Warnings   []check.Finding
	Watertight bool
}

func newResult(p *prepared, v render.Views) *DrawingResult {
	return &DrawingResult{
		Front:      v.Get(view.Front),
		Side:       v.Get(view.Side),
		Top:        v.Get(view.Top),
		Iso:        v.Get(view.Iso),
		Format:     p.format,
		Mesh:       p.mesh,
		Summary:    p.summary,
		Metadata:   NewMetadata(p.summary),
		Warnings:   p.report.Warnings,
		Watertight: p.report.Watertight,
	}
}

// Views returns the four views indexed by kind.
func (r *DrawingResult) Views() render.Views {
	var v render.Views
	v[view.Front], v[view.Side], v[view.Top], v[view.Iso] = r.Front, r.Side, r.Top, r.Iso
	return v
}

// Drawing runs the pipeline and lays the orthographic views out on an
// engineering sheet instead of returning images. The sheet is titled with
// the solid name from the file.
func (e *Engine) Drawing(ctx context.Context, data []byte, ext string) (*drawing.Sheet, error) {
	return run(ctx, e.timeout, func(ctx context.Context) (*drawing.Sheet, error) {
		p, err := e.prepare(data, ext)
		if err != nil {
			return nil, err
		}
		frames, err := e.renderFrames(ctx, p.mesh, p.summary, p.views)
		if err != nil {
			return nil, err
		}
		sheet, err := drawing.FromFrames(p.mesh.Name, p.summary.Dimensions, frames)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		return sheet, nil
	})
}
