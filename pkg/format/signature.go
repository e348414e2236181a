package format

import (
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// STLType is the filetype registration for STL meshes.
var STLType = filetype.NewType("stl", "model/stl")

func init() {
	filetype.AddMatcher(STLType, matchSTL)
}

// matchSTL applies the same binary-then-ASCII precedence as Validate. Empty
// binary files are accepted here; policy is applied by Validate.
func matchSTL(buf []byte) bool {
	if _, fits := BinaryCount(buf); fits {
		return true
	}
	return hasSolidPrefix(buf) && checkASCII(buf) == nil
}

// containers maps upload extensions to the filetype matcher that must accept
// their leading bytes. ZIP-based formats share the ZIP local-header signature.
var containers = map[string]string{
	"png":  "png",
	"jpg":  "jpg",
	"jpeg": "jpg",
	"gif":  "gif",
	"pdf":  "pdf",
	"zip":  "zip",
	"3mf":  "zip",
	"docx": "zip",
	"stl":  STLType.Extension,
}

// CheckSignature verifies that data starts with the magic bytes expected for
// ext. Extensions without a fixed signature (plain-text formats such as obj,
// step or gcode) pass unchecked.
func CheckSignature(data []byte, ext string) error {
	ext = NormalizeExtension(ext)
	want, ok := containers[ext]
	if !ok {
		return nil
	}
	if filetype.Is(data, want) {
		return nil
	}
	return invalid("content does not match .%s format", ext)
}

// rejectExtension explains why an upload with a non-STL extension is
// refused: its bytes contradict the claimed container, or they belong to
// another known type.
func rejectExtension(data []byte, ext, raw string) error {
	if err := CheckSignature(data, ext); err != nil {
		return err
	}
	if kind := Detect(data); kind != types.Unknown && kind.Extension != containers[ext] {
		return invalid("unsupported extension %q: content is %s", raw, kind.Extension)
	}
	return invalid("unsupported extension %q", raw)
}

// Detect reports the registered type whose signature matches data, or
// types.Unknown.
func Detect(data []byte) types.Type {
	kind, err := filetype.Match(data)
	if err != nil {
		return types.Unknown
	}
	return kind
}
