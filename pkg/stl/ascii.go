package stl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/meshdraw/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// maxLineLength bounds a single ASCII line.
const maxLineLength = 1 << 20

// asciiState is the position inside the solid/facet/loop nesting.
type asciiState int

const (
	stateSolid   asciiState = iota // expecting "solid"
	stateBody                      // expecting "facet" or "endsolid"
	stateFacet                     // expecting "outer loop"
	stateLoop                      // expecting "vertex" or "endloop"
	stateEndFace                   // expecting "endfacet"
	stateDone                      // after "endsolid"; another solid may follow
)

type asciiParser struct {
	line   int
	state  asciiState
	name   string
	tris   []kernel.Triangle
	cur    kernel.Triangle
	nVerts int
}

func (p *asciiParser) fail(format string, args ...any) error {
	return &ParseError{Line: p.line, Triangle: len(p.tris), Reason: fmt.Sprintf(format, args...)}
}

// parseVec parses three whitespace-split tokens as finite float64 values.
// Scientific notation is accepted.
func (p *asciiParser) parseVec(fields []string) (v3.Vec, error) {
	if len(fields) != 3 {
		return v3.Vec{}, p.fail("expected 3 coordinates, got %d", len(fields))
	}
	var xyz [3]float64
	for i, tok := range fields {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return v3.Vec{}, p.fail("bad number %q", tok)
		}
		if !finite(f) {
			return v3.Vec{}, p.fail("non-finite number %q", tok)
		}
		xyz[i] = f
	}
	return v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func (p *asciiParser) handle(fields []string) error {
	kw := strings.ToLower(fields[0])

	switch p.state {
	case stateSolid, stateDone:
		if kw != "solid" {
			return p.fail("expected solid, got %q", fields[0])
		}
		if p.name == "" && len(fields) > 1 {
			p.name = strings.Join(fields[1:], " ")
		}
		p.state = stateBody

	case stateBody:
		switch kw {
		case "facet":
			if len(fields) < 2 || !strings.EqualFold(fields[1], "normal") {
				return p.fail("expected facet normal")
			}
			n, err := p.parseVec(fields[2:])
			if err != nil {
				return err
			}
			p.cur = kernel.Triangle{Normal: n}
			p.nVerts = 0
			p.state = stateFacet
		case "endsolid":
			p.state = stateDone
		default:
			return p.fail("expected facet or endsolid, got %q", fields[0])
		}

	case stateFacet:
		if kw != "outer" || len(fields) != 2 || !strings.EqualFold(fields[1], "loop") {
			return p.fail("expected outer loop, got %q", strings.Join(fields, " "))
		}
		p.state = stateLoop

	case stateLoop:
		switch kw {
		case "vertex":
			if p.nVerts == 3 {
				return p.fail("facet has more than 3 vertices")
			}
			v, err := p.parseVec(fields[1:])
			if err != nil {
				return err
			}
			p.cur.V[p.nVerts] = v
			p.nVerts++
		case "endloop":
			if p.nVerts != 3 {
				return p.fail("facet has %d vertices, want 3", p.nVerts)
			}
			p.state = stateEndFace
		default:
			return p.fail("expected vertex or endloop, got %q", fields[0])
		}

	case stateEndFace:
		if kw != "endfacet" {
			return p.fail("expected endfacet, got %q", fields[0])
		}
		p.tris = append(p.tris, p.cur)
		p.state = stateBody
	}
	return nil
}

func parseASCII(data []byte) (*kernel.Mesh, error) {
	return decodeASCII(bytes.NewReader(data))
}

func decodeASCII(r io.Reader) (*kernel.Mesh, error) {
	p := &asciiParser{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	for sc.Scan() {
		p.line++
		line := sc.Text()
		if p.line == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := p.handle(fields); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, p.fail("%v", err)
	}

	switch p.state {
	case stateDone:
	case stateSolid:
		return nil, p.fail("no solid found")
	default:
		return nil, p.fail("unexpected end of input inside solid")
	}
	return kernel.NewMesh(p.name, p.tris), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func writeVec(w *bufio.Writer, prefix string, v v3.Vec) {
	w.WriteString(prefix)
	w.WriteString(formatFloat(v.X))
	w.WriteByte(' ')
	w.WriteString(formatFloat(v.Y))
	w.WriteByte(' ')
	w.WriteString(formatFloat(v.Z))
	w.WriteByte('\n')
}

// EncodeASCII writes m as an ASCII STL with shortest round-trip float
// formatting, so parsing the output reproduces every coordinate exactly.
func EncodeASCII(w io.Writer, m *kernel.Mesh) error {
	name := strings.Join(strings.Fields(m.Name), "_")
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range m.All() {
		n, _ := kernel.FaceNormal(t)
		writeVec(bw, "  facet normal ", n)
		bw.WriteString("    outer loop\n")
		for _, v := range t.V {
			writeVec(bw, "      vertex ", v)
		}
		bw.WriteString("    endloop\n")
		bw.WriteString("  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}
