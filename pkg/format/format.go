// Package format sniffs and validates raw mesh uploads before parsing.
//
// STL comes in two dialects. A binary file is an 80-byte header, a
// little-endian uint32 triangle count n and n 50-byte records; an ASCII file
// is text between "solid" and "endsolid". Binary headers are free text and
// frequently begin with "solid" too, so the binary length check always runs
// first and ASCII is only considered when it fails. This precedence is a
// heuristic, not a proof: a text file whose length happens to satisfy the
// binary formula is classified as binary.
package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Binary STL layout.
const (
	HeaderSize    = 80
	CountSize     = 4
	PreambleSize  = HeaderSize + CountSize
	RecordSize    = 50
	TrailingSlack = 2 // some exporters append padding or a CRC
)

// Format identifies an STL dialect.
type Format int

const (
	Unknown Format = iota
	Binary
	ASCII
)

func (f Format) String() string {
	switch f {
	case Binary:
		return "binary"
	case ASCII:
		return "ascii"
	default:
		return "unknown"
	}
}

// ErrInvalidFormat is the sentinel for every rejection made by this package.
var ErrInvalidFormat = errors.New("invalid format")

// InvalidFormatError carries the reason a buffer was rejected.
type InvalidFormatError struct {
	Reason string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidFormat, e.Reason)
}

func (e *InvalidFormatError) Unwrap() error {
	return ErrInvalidFormat
}

func invalid(format string, args ...any) error {
	return &InvalidFormatError{Reason: fmt.Sprintf(format, args...)}
}

// Options controls validation policy.
type Options struct {
	// AllowEmpty accepts a binary file declaring zero triangles. The
	// default rejects it.
	AllowEmpty bool
}

// NormalizeExtension lower-cases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Validate checks that data is a structurally plausible STL file with the
// claimed extension and reports its dialect. It never panics on malformed
// input.
func Validate(data []byte, ext string, opts Options) (Format, error) {
	if e := NormalizeExtension(ext); e != "stl" {
		return Unknown, rejectExtension(data, e, ext)
	}

	n, fits := BinaryCount(data)
	if fits {
		if n == 0 && !opts.AllowEmpty {
			return Unknown, invalid("binary file declares zero triangles")
		}
		return Binary, nil
	}

	if hasSolidPrefix(data) {
		if err := checkASCII(data); err != nil {
			return Unknown, err
		}
		return ASCII, nil
	}

	if len(data) < PreambleSize {
		return Unknown, invalid("%d bytes is shorter than the %d-byte binary preamble", len(data), PreambleSize)
	}
	want := BinarySize(n)
	return Unknown, invalid("binary length %d does not match %d triangles (want %d..%d bytes)",
		len(data), n, want, want+TrailingSlack)
}

// BinarySize returns the exact size of a binary STL with n triangles.
func BinarySize(n uint32) uint64 {
	return PreambleSize + RecordSize*uint64(n)
}

// BinaryCount reads the declared triangle count and reports whether the
// buffer length lies within [84+50n, 84+50n+2].
func BinaryCount(data []byte) (n uint32, fits bool) {
	if len(data) < PreambleSize {
		return 0, false
	}
	n = binary.LittleEndian.Uint32(data[HeaderSize:PreambleSize])
	want := BinarySize(n)
	size := uint64(len(data))
	return n, size >= want && size <= want+TrailingSlack
}

func hasSolidPrefix(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	// bytes.TrimLeft treats the cutset as UTF-8, which covers a BOM.
	return len(trimmed) >= 5 && bytes.EqualFold(trimmed[:5], []byte("solid"))
}

// checkASCII requires a line whose first token is endsolid. The scan runs
// backwards since the keyword normally closes the file.
func checkASCII(data []byte) error {
	for end := len(data); end > 0; {
		start := bytes.LastIndexByte(data[:end], '\n') + 1
		if isEndsolidLine(data[start:end]) {
			return nil
		}
		end = start - 1
	}
	return invalid("ascii file has no endsolid line")
}

var endsolid = []byte("endsolid")

func isEndsolidLine(line []byte) bool {
	line = bytes.TrimLeft(line, " \t\r")
	if len(line) < len(endsolid) || !bytes.EqualFold(line[:len(endsolid)], endsolid) {
		return false
	}
	rest := line[len(endsolid):]
	return len(rest) == 0 || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\r'
}
