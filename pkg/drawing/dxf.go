package drawing

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yofu/dxf"
	dxfdrawing "github.com/yofu/dxf/drawing"
)

const (
	dimensionLayer = "dimensions"
	titleLayer     = "title"
)

func (s *Sheet) dxf() (*dxfdrawing.Drawing, error) {
	d := dxf.NewDrawing()
	layer := func(name string) error {
		if _, err := d.AddLayer(name, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("drawing: dxf layer %s: %w", name, err)
		}
		return nil
	}
	line := func(a, b [2]float64) error {
		_, err := d.Line(a[0], a[1], 0, b[0], b[1], 0)
		return err
	}

	for _, p := range s.Panels {
		if err := layer(p.Kind.String()); err != nil {
			return nil, err
		}
		for _, l := range p.Lines {
			if err := line([2]float64{l.A.X, l.A.Y}, [2]float64{l.B.X, l.B.Y}); err != nil {
				return nil, err
			}
		}
	}

	if err := layer(dimensionLayer); err != nil {
		return nil, err
	}
	for _, dim := range s.Dimensions {
		for _, seg := range dim.segments() {
			if err := line([2]float64{seg.A.X, seg.A.Y}, [2]float64{seg.B.X, seg.B.Y}); err != nil {
				return nil, err
			}
		}
		at := dim.A.Add(dim.B).MulScalar(0.5).Add(dim.Offset).Add(dim.labelShift())
		if _, err := d.Text(dim.Label, at.X, at.Y, 0, TextHeight); err != nil {
			return nil, err
		}
	}

	if err := layer(titleLayer); err != nil {
		return nil, err
	}
	if _, err := d.Text(s.Title, s.Min.X+Margin, s.Min.Y+Margin/2, 0, TextHeight); err != nil {
		return nil, err
	}
	return d, nil
}

// SaveDXF writes the sheet as an AutoCAD DXF file with one layer per view.
func (s *Sheet) SaveDXF(path string) error {
	d, err := s.dxf()
	if err != nil {
		return err
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("drawing: save dxf: %w", err)
	}
	return nil
}

// WriteDXF writes the sheet as DXF to w. The dxf library only writes to
// named files, so the output is staged in a temporary directory.
func (s *Sheet) WriteDXF(w io.Writer) error {
	dir, err := os.MkdirTemp("", "meshdraw-dxf-")
	if err != nil {
		return fmt.Errorf("drawing: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "sheet.dxf")
	if err := s.SaveDXF(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("drawing: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("drawing: copy dxf: %w", err)
	}
	return nil
}
