// Package stl parses and writes STL meshes in both the binary and the ASCII
// dialect. Input is expected to have passed format.Validate; the parser still
// defends against truncated records and non-finite numbers.
package stl

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/meshdraw/pkg/format"
	"github.com/chazu/meshdraw/pkg/kernel"
)

// ErrParse is the sentinel for every parse failure.
var ErrParse = errors.New("parse error")

// ParseError describes where parsing stopped. Line is 1-based for ASCII input
// and zero for binary input; Triangle is the 0-based facet being read.
type ParseError struct {
	Line     int
	Triangle int
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrParse, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: triangle %d: %s", ErrParse, e.Triangle, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Parse converts a validated buffer into an immutable mesh. Degenerate
// triangles are kept.
func Parse(data []byte, f format.Format) (*kernel.Mesh, error) {
	switch f {
	case format.Binary:
		return parseBinary(data)
	case format.ASCII:
		return parseASCII(data)
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unsupported format %v", f)}
	}
}

// Decode validates and parses data in one step.
func Decode(data []byte, opts format.Options) (*kernel.Mesh, format.Format, error) {
	f, err := format.Validate(data, "stl", opts)
	if err != nil {
		return nil, format.Unknown, err
	}
	m, err := Parse(data, f)
	if err != nil {
		return nil, f, err
	}
	return m, f, nil
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
