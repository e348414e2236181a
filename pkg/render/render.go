// Package render rasterizes meshes into fixed-size technical-drawing images.
//
// Each view is drawn twice: a flat-shaded light grey solid under one key
// light plus ambient fill, then the visible sharp edges stroked in a dark
// line color. Rendering is done on the CPU into a supersampled canvas with a
// depth buffer and downscaled to the output size.
//
// Canvases are scarce and owned by a process-wide Backend. A pipeline
// acquires one Context per invocation, uploads its mesh, renders any number
// of cameras and releases the Context on every exit path.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/chazu/meshdraw/pkg/view"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrRenderUnavailable reports that no canvas could be acquired. It is a
// property of the host, not of the input, and is safe to retry.
var ErrRenderUnavailable = errors.New("render backend unavailable")

// ErrReleased is returned when a released Context is used again.
var ErrReleased = errors.New("render context already released")

// UnavailableError wraps the cause of a failed acquisition.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return ErrRenderUnavailable.Error()
	}
	return fmt.Sprintf("%s: %v", ErrRenderUnavailable, e.Cause)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrRenderUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Style controls colors and lighting.
type Style struct {
	Background color.RGBA
	Fill       color.RGBA
	Edge       color.RGBA
	Ambient    float64 // light reaching every face
	Diffuse    float64 // key light strength
	LineWidth  float64 // output pixels
	// KeyLight is the direction toward the key light in camera space:
	// X right, Y up, Z toward the viewer.
	KeyLight v3.Vec
}

// DefaultStyle is a white-background technical drawing look.
var DefaultStyle = Style{
	Background: color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Fill:       color.RGBA{R: 212, G: 214, B: 218, A: 255},
	Edge:       color.RGBA{R: 34, G: 34, B: 40, A: 255},
	Ambient:    0.5,
	Diffuse:    0.5,
	LineWidth:  1.25,
	KeyLight:   v3.Vec{X: -0.35, Y: 0.5, Z: 0.8},
}

// Options configures a Backend.
type Options struct {
	Width, Height int
	// Supersample is the per-axis oversampling factor used for
	// antialiasing; 1 disables it.
	Supersample int
	// MaxSurfaces bounds the number of canvases alive at once across the
	// whole process.
	MaxSurfaces int
	// AcquireTimeout bounds how long Acquire waits for a free canvas;
	// zero waits until the caller's context is done.
	AcquireTimeout time.Duration
	// EdgeAngle is the dihedral angle in degrees above which an edge is
	// drawn.
	EdgeAngle float64
	Style     Style
}

// DefaultOptions returns the 800×600, 2× supersampled, single-canvas setup.
func DefaultOptions() Options {
	return Options{
		Width:       view.Width,
		Height:      view.Height,
		Supersample: 2,
		MaxSurfaces: 1,
		EdgeAngle:   30,
		Style:       DefaultStyle,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = d.Width, d.Height
	}
	if o.Supersample <= 0 {
		o.Supersample = d.Supersample
	}
	if o.MaxSurfaces <= 0 {
		o.MaxSurfaces = d.MaxSurfaces
	}
	if o.EdgeAngle <= 0 {
		o.EdgeAngle = d.EdgeAngle
	}
	if o.Style == (Style{}) {
		o.Style = d.Style
	}
	return o
}
