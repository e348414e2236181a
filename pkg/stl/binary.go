package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/chazu/meshdraw/pkg/format"
	"github.com/chazu/meshdraw/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// short name, for convenience
var le = binary.LittleEndian

func readVec(b []byte) v3.Vec {
	return v3.Vec{
		X: float64(math.Float32frombits(le.Uint32(b[0:]))),
		Y: float64(math.Float32frombits(le.Uint32(b[4:]))),
		Z: float64(math.Float32frombits(le.Uint32(b[8:]))),
	}
}

func parseBinary(data []byte) (*kernel.Mesh, error) {
	if len(data) < format.PreambleSize {
		return nil, &ParseError{Reason: fmt.Sprintf("truncated header: %d bytes", len(data))}
	}
	n := le.Uint32(data[format.HeaderSize:format.PreambleSize])
	if need := format.BinarySize(n); uint64(len(data)) < need {
		return nil, &ParseError{
			Triangle: int((uint64(len(data)) - format.PreambleSize) / format.RecordSize),
			Reason:   fmt.Sprintf("truncated: %d triangles need %d bytes, have %d", n, need, len(data)),
		}
	}

	tris := make([]kernel.Triangle, n)
	off := format.PreambleSize
	for i := range tris {
		rec := data[off : off+format.RecordSize]
		t := &tris[i]
		t.Normal = readVec(rec[0:])
		for j := 0; j < 3; j++ {
			t.V[j] = readVec(rec[12+12*j:])
			if !finite(t.V[j].X, t.V[j].Y, t.V[j].Z) {
				return nil, &ParseError{Triangle: i, Reason: fmt.Sprintf("non-finite vertex %d", j)}
			}
		}
		t.Attr = le.Uint16(rec[48:])
		off += format.RecordSize
	}

	return kernel.NewMesh(headerName(data[:format.HeaderSize]), tris), nil
}

// headerName extracts printable header text, which many exporters use for
// the solid name.
func headerName(h []byte) string {
	end := len(h)
	for i, c := range h {
		if c == 0 {
			end = i
			break
		}
	}
	name := strings.TrimSpace(string(h[:end]))
	for _, r := range name {
		if r < 0x20 || r > 0x7e {
			return ""
		}
	}
	return name
}

func binaryHeader(name string) string {
	switch {
	case name == "":
		return "meshdraw"
	case strings.HasPrefix(strings.ToLower(name), "solid"):
		return "meshdraw " + name
	}
	return name
}

func putVec(b []byte, v v3.Vec) {
	le.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	le.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	le.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}

// EncodeBinary writes m as a binary STL. Normals are recomputed from the
// winding; coordinates are narrowed to float32. The header never starts with
// "solid" so readers that sniff naively do not mistake it for ASCII.
func EncodeBinary(w io.Writer, m *kernel.Mesh) error {
	bw := bufio.NewWriter(w)

	var pre [format.PreambleSize]byte
	copy(pre[:format.HeaderSize], binaryHeader(m.Name))
	le.PutUint32(pre[format.HeaderSize:], uint32(m.TriangleCount()))
	if _, err := bw.Write(pre[:]); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}

	var rec [format.RecordSize]byte
	for _, t := range m.All() {
		n, _ := kernel.FaceNormal(t)
		putVec(rec[0:], n)
		for j := 0; j < 3; j++ {
			putVec(rec[12+12*j:], t.V[j])
		}
		le.PutUint16(rec[48:], t.Attr)
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("stl: write triangle: %w", err)
		}
	}
	return bw.Flush()
}
