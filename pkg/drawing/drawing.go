// Package drawing lays the orthographic views out on a single engineering
// sheet and exports it as vector SVG or DXF.
//
// The layout is third-angle projection: the top view sits above the front
// view and the right side view sits to its right. All sheet coordinates are
// millimetres at 1:1 with Y pointing up.
package drawing

import (
	"fmt"
	"math"

	"github.com/chazu/meshdraw/pkg/render"
	"github.com/chazu/meshdraw/pkg/view"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Margin is the blank border around the sheet content, mm.
const Margin = 10.0

// Panel is one view placed on the sheet.
type Panel struct {
	Kind   view.Kind
	Center v2.Vec
	Size   v2.Vec // extent of the part in this view
	Lines  []render.Line
}

// Dimension is a linear dimension drawn between two points and labelled
// with their distance.
type Dimension struct {
	A, B   v2.Vec
	Offset v2.Vec // from the measured points to the dimension line
	Label  string
}

// Sheet is a laid-out drawing.
type Sheet struct {
	Title      string
	Min, Max   v2.Vec
	Panels     []Panel
	Dimensions []Dimension
}

// Size returns the sheet extent.
func (s *Sheet) Size() v2.Vec {
	return s.Max.Sub(s.Min)
}

// Panel returns the panel for k, if present.
func (s *Sheet) Panel(k view.Kind) (Panel, bool) {
	for _, p := range s.Panels {
		if p.Kind == k {
			return p, true
		}
	}
	return Panel{}, false
}

// Gap returns the spacing between panels for a part whose largest extent is
// maxDim.
func Gap(maxDim float64) float64 {
	return 0.25*maxDim + 10
}

// Layout places the front, side and top views. lines holds the visible edges
// of each view in model units on that view's image plane, centered on the
// part; dims are the part extents along X, Y and Z.
func Layout(title string, dims v3.Vec, lines map[view.Kind][]render.Line) (*Sheet, error) {
	for _, k := range []view.Kind{view.Front, view.Side, view.Top} {
		if _, ok := lines[k]; !ok {
			return nil, fmt.Errorf("drawing: missing %v view", k)
		}
	}
	gap := Gap(max(dims.X, dims.Y, dims.Z))

	front := Panel{Kind: view.Front, Size: v2.Vec{X: dims.X, Y: dims.Z}}
	top := Panel{
		Kind:   view.Top,
		Center: v2.Vec{Y: dims.Z/2 + gap + dims.Y/2},
		Size:   v2.Vec{X: dims.X, Y: dims.Y},
	}
	side := Panel{
		Kind:   view.Side,
		Center: v2.Vec{X: dims.X/2 + gap + dims.Y/2},
		Size:   v2.Vec{X: dims.Y, Y: dims.Z},
	}

	s := &Sheet{Title: title}
	for _, p := range []Panel{front, top, side} {
		src := lines[p.Kind]
		p.Lines = make([]render.Line, len(src))
		for i, l := range src {
			p.Lines[i] = render.Line{A: l.A.Add(p.Center), B: l.B.Add(p.Center)}
		}
		s.Panels = append(s.Panels, p)
	}

	off := 0.4*gap + 2
	fmin := front.Center.Sub(front.Size.MulScalar(0.5))
	fmax := front.Center.Add(front.Size.MulScalar(0.5))
	tmin := top.Center.Sub(top.Size.MulScalar(0.5))
	tmax := top.Center.Add(top.Size.MulScalar(0.5))
	s.Dimensions = []Dimension{
		// overall width under the front view
		{A: fmin, B: v2.Vec{X: fmax.X, Y: fmin.Y}, Offset: v2.Vec{Y: -off}, Label: label(dims.X)},
		// overall height left of the front view
		{A: fmin, B: v2.Vec{X: fmin.X, Y: fmax.Y}, Offset: v2.Vec{X: -off}, Label: label(dims.Z)},
		// depth left of the top view
		{A: tmin, B: v2.Vec{X: tmin.X, Y: tmax.Y}, Offset: v2.Vec{X: -off}, Label: label(dims.Y)},
	}

	s.Min = v2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	s.Max = v2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(p v2.Vec) {
		s.Min = s.Min.Min(p)
		s.Max = s.Max.Max(p)
	}
	for _, p := range s.Panels {
		grow(p.Center.Sub(p.Size.MulScalar(0.5)))
		grow(p.Center.Add(p.Size.MulScalar(0.5)))
	}
	for _, d := range s.Dimensions {
		grow(d.A.Add(d.Offset))
		grow(d.B.Add(d.Offset))
	}
	// room for labels and the title block
	m := v2.Vec{X: Margin, Y: Margin}
	s.Min = s.Min.Sub(m).Sub(v2.Vec{X: TextHeight * 2, Y: TextHeight * 3})
	s.Max = s.Max.Add(m)
	return s, nil
}

func label(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Length returns the measured distance of d.
func (d Dimension) Length() float64 {
	return d.B.Sub(d.A).Length()
}

// FromFrames lays out the orthographic frames of a render.
func FromFrames(title string, dims v3.Vec, frames []*render.Frame) (*Sheet, error) {
	lines := make(map[view.Kind][]render.Line, len(frames))
	for _, f := range frames {
		if f.Spec.Projection == view.Orthographic {
			lines[f.Spec.Kind] = f.PlaneLines()
		}
	}
	return Layout(title, dims, lines)
}
