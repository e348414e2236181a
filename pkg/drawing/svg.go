package drawing

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/chazu/meshdraw/pkg/render"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// TextHeight is the annotation text height, mm.
const TextHeight = 3.5

// svgUnits is the number of SVG user units per millimetre. svgo takes
// integer coordinates, so sheet coordinates are scaled before rounding.
const svgUnits = 10

const (
	edgeStyle = "stroke:#222228;stroke-width:5;stroke-linecap:round;fill:none"
	dimStyle  = "stroke:#555555;stroke-width:2;fill:none"
	textStyle = "font-family:sans-serif;font-size:35px;fill:#222228;text-anchor:middle"
	leftText  = "font-family:sans-serif;font-size:35px;fill:#222228"
)

type svgWriter struct {
	c *svg.SVG
	s *Sheet
}

func (w svgWriter) pt(p v2.Vec) (int, int) {
	x := (p.X - w.s.Min.X) * svgUnits
	y := (w.s.Max.Y - p.Y) * svgUnits
	return int(math.Round(x)), int(math.Round(y))
}

func (w svgWriter) line(a, b v2.Vec, style ...string) {
	x0, y0 := w.pt(a)
	x1, y1 := w.pt(b)
	w.c.Line(x0, y0, x1, y1, style...)
}

func (w svgWriter) text(p v2.Vec, s, style string) {
	x, y := w.pt(p)
	w.c.Text(x, y, s, style)
}

// WriteSVG renders the sheet as SVG.
func (s *Sheet) WriteSVG(out io.Writer) error {
	ew := &errWriter{w: out}
	size := s.Size()
	w := svgWriter{c: svg.New(ew), s: s}
	w.c.Start(int(math.Ceil(size.X*svgUnits)), int(math.Ceil(size.Y*svgUnits)))
	w.c.Title(s.Title)
	w.c.Rect(0, 0, int(math.Ceil(size.X*svgUnits)), int(math.Ceil(size.Y*svgUnits)), "fill:white")

	for _, p := range s.Panels {
		w.c.Group(fmt.Sprintf(`id="%v"`, p.Kind), edgeStyle)
		for _, l := range p.Lines {
			w.line(l.A, l.B)
		}
		w.c.Gend()
	}

	w.c.Group(`id="dimensions"`)
	for _, d := range s.Dimensions {
		for _, seg := range d.segments() {
			w.line(seg.A, seg.B, dimStyle)
		}
		mid := d.A.Add(d.B).MulScalar(0.5).Add(d.Offset)
		w.text(mid.Add(d.labelShift()), d.Label, textStyle)
	}
	w.c.Gend()

	w.text(v2.Vec{X: s.Min.X + Margin, Y: s.Min.Y + Margin/2}, s.Title, leftText)
	w.c.End()
	return ew.err
}

// segments returns the extension lines, the dimension line and its end
// ticks.
func (d Dimension) segments() []render.Line {
	a := d.A.Add(d.Offset)
	b := d.B.Add(d.Offset)
	out := []render.Line{
		{A: d.A, B: a},
		{A: d.B, B: b},
		{A: a, B: b},
	}
	dir := b.Sub(a)
	if l := dir.Length(); l > 0 {
		dir = dir.MulScalar(1 / l)
	}
	// 45° architectural ticks
	t := v2.Vec{X: dir.X - dir.Y, Y: dir.Y + dir.X}.MulScalar(TextHeight / 3)
	for _, p := range []v2.Vec{a, b} {
		out = append(out, render.Line{A: p.Sub(t), B: p.Add(t)})
	}
	return out
}

// labelShift moves a label off its dimension line, away from the part.
func (d Dimension) labelShift() v2.Vec {
	o := d.Offset
	if l := o.Length(); l > 0 {
		o = o.MulScalar(TextHeight / l)
	}
	if d.B.Sub(d.A).X == 0 {
		// vertical dimension, text to the outside
		return v2.Vec{X: o.X * 1.5}
	}
	return v2.Vec{Y: o.Y}
}

// errWriter keeps the first write error; svgo discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err == nil {
		_, e.err = e.w.Write(p)
	}
	return len(p), nil
}
