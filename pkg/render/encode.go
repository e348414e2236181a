package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/chazu/meshdraw/pkg/view"
)

// RenderedView is an encoded PNG of one canonical view.
type RenderedView struct {
	Kind   view.Kind
	Width  int
	Height int
	PNG    []byte
}

// DataURI returns the image as a base64 data URI.
func (v RenderedView) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(v.PNG)
}

// Views holds one RenderedView per view.Kind, indexed by Kind.
type Views [len(view.Kinds)]RenderedView

// Get returns the view for k.
func (v Views) Get(k view.Kind) RenderedView {
	return v[k]
}

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode turns a frame into a RenderedView.
func Encode(f *Frame) (RenderedView, error) {
	data, err := EncodePNG(f.Image)
	if err != nil {
		return RenderedView{}, err
	}
	b := f.Image.Bounds()
	return RenderedView{Kind: f.Spec.Kind, Width: b.Dx(), Height: b.Dy(), PNG: data}, nil
}
