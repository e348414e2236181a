package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/chazu/meshdraw/pkg/check"
	"github.com/chazu/meshdraw/pkg/config"
	"github.com/chazu/meshdraw/pkg/format"
	"github.com/chazu/meshdraw/pkg/kernel"
	"github.com/chazu/meshdraw/pkg/render"
	"github.com/chazu/meshdraw/pkg/stl"
	"github.com/chazu/meshdraw/pkg/view"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, cfg *config.Config) (*Engine, *render.Backend) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	b := render.NewBackend(render.Options{
		Supersample:    1,
		MaxSurfaces:    cfg.Render.MaxContexts,
		AcquireTimeout: 50 * time.Millisecond,
	})
	return New(WithConfig(cfg), WithBackend(b), WithLogger(quietLogger())), b
}

func binarySTL(t *testing.T, m *kernel.Mesh) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, stl.EncodeBinary(&buf, m))
	return buf.Bytes()
}

func asciiSTL(t *testing.T, m *kernel.Mesh) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, stl.EncodeASCII(&buf, m))
	return buf.Bytes()
}

func requirePNG(t *testing.T, rv render.RenderedView) {
	t.Helper()
	require.Equal(t, 800, rv.Width)
	require.Equal(t, 600, rv.Height)
	img, err := png.Decode(bytes.NewReader(rv.PNG))
	require.NoError(t, err)
	require.Equal(t, 800, img.Bounds().Dx())
	require.Equal(t, 600, img.Bounds().Dy())
}

func TestGeneratePyramid(t *testing.T) {
	pyramid := kernel.Pyramid(10, 10)
	require.Equal(t, 14, pyramid.TriangleCount())

	for name, data := range map[string][]byte{
		"binary": binarySTL(t, pyramid),
		"ascii":  asciiSTL(t, pyramid),
	} {
		t.Run(name, func(t *testing.T) {
			eng, b := newTestEngine(t, nil)
			res, err := eng.Generate(context.Background(), data, ".STL")
			require.NoError(t, err)

			require.Equal(t, 14, res.Metadata.TriangleCount)
			require.InDelta(t, 10, res.Metadata.DimensionX, 1e-9)
			require.InDelta(t, 10, res.Metadata.DimensionY, 1e-9)
			require.InDelta(t, 10, res.Metadata.DimensionZ, 1e-9)
			require.InDelta(t, 1000.0/3/1000, res.Metadata.VolumeCm3, 1e-9)
			require.True(t, res.Watertight)
			require.Empty(t, res.Warnings)

			for _, k := range view.Kinds {
				rv := res.Views().Get(k)
				require.Equal(t, k, rv.Kind)
				requirePNG(t, rv)
			}
			require.Zero(t, b.Active(), "render context leaked")
		})
	}
}

func TestGenerateFormatReported(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	res, err := eng.Generate(context.Background(), asciiSTL(t, kernel.Cube(5)), "stl")
	require.NoError(t, err)
	require.Equal(t, format.ASCII, res.Format)

	res, err = eng.Generate(context.Background(), binarySTL(t, kernel.Cube(5)), "stl")
	require.NoError(t, err)
	require.Equal(t, format.Binary, res.Format)
}

func TestGenerateErrors(t *testing.T) {
	cube := binarySTL(t, kernel.Cube(10))
	badASCII := []byte("solid bad\n facet normal 0 0 1\n  outer loop\n   vertex 0 0 x\n" +
		"   vertex 1 0 0\n   vertex 0 1 0\n  endloop\n endfacet\nendsolid bad\n")

	tests := []struct {
		name string
		data []byte
		ext  string
		want error
	}{
		{"wrong extension", cube, "obj", format.ErrInvalidFormat},
		{"truncated binary", cube[:len(cube)-10], "stl", format.ErrInvalidFormat},
		{"short file", []byte("hello"), "stl", format.ErrInvalidFormat},
		{"bad ascii number", badASCII, "stl", stl.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, b := newTestEngine(t, nil)
			res, err := eng.Generate(context.Background(), tt.data, tt.ext)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, res)
			require.Zero(t, b.Active())
		})
	}
}

func TestGenerateRejectsMislabelledUploads(t *testing.T) {
	eng, b := newTestEngine(t, nil)
	cube := asciiSTL(t, kernel.Cube(10))

	tests := []struct {
		name string
		data []byte
		ext  string
		want string
	}{
		{"stl bytes named png", cube, "png", "content does not match .png format"},
		{"stl bytes named obj", cube, "obj", "content is stl"},
		{"zip named 3mf", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"), "3mf", `unsupported extension "3mf"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := eng.Generate(context.Background(), tt.data, tt.ext)
			require.ErrorIs(t, err, format.ErrInvalidFormat)
			require.Contains(t, err.Error(), tt.want)
			require.Nil(t, res)
			require.Zero(t, b.Active())
		})
	}
}

func TestGenerateNameContainingEndsolid(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	data := []byte("solid endsolid_part\n facet normal 0 0 1\n  outer loop\n   vertex 0 0 0\n" +
		"   vertex 1 0 0\n   vertex 0 1 0\n  endloop\n endfacet\n")
	_, err := eng.Generate(context.Background(), data, "stl")
	require.ErrorIs(t, err, format.ErrInvalidFormat)
	require.NotErrorIs(t, err, stl.ErrParse)
}

func TestGenerateInputLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Format.MaxInputBytes = 100
	eng, _ := newTestEngine(t, cfg)
	_, err := eng.Generate(context.Background(), binarySTL(t, kernel.Cube(10)), "stl")
	require.ErrorIs(t, err, format.ErrInvalidFormat)
	require.Contains(t, err.Error(), "limit")
}

func emptyBinary() []byte {
	return make([]byte, format.PreambleSize)
}

func TestGenerateEmptyMeshPolicy(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	_, err := eng.Generate(context.Background(), emptyBinary(), "stl")
	require.ErrorIs(t, err, format.ErrInvalidFormat)

	cfg := config.Default()
	cfg.Format.AllowEmpty = true
	eng, _ = newTestEngine(t, cfg)
	res, err := eng.Generate(context.Background(), emptyBinary(), "stl")
	require.NoError(t, err)
	require.Equal(t, 0, res.Metadata.TriangleCount)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, check.CodeEmptyMesh, res.Warnings[0].Code)
	requirePNG(t, res.Front)
}

func TestGenerateDegenerateGeometryIsWarning(t *testing.T) {
	p := v3.Vec{X: 3, Y: 3, Z: 3}
	m := kernel.NewMesh("point", []kernel.Triangle{{V: [3]v3.Vec{p, p, p}}})

	eng, _ := newTestEngine(t, nil)
	res, err := eng.Generate(context.Background(), binarySTL(t, m), "stl")
	require.NoError(t, err)

	var found bool
	for _, w := range res.Warnings {
		if errors.Is(w, check.ErrDegenerateGeometry) {
			found = true
		}
	}
	require.True(t, found, "warnings %v lack degenerate geometry", res.Warnings)
	require.Equal(t, 1, res.Summary.Degenerate)
	for _, k := range view.Kinds {
		requirePNG(t, res.Views().Get(k))
	}
}

func TestGenerateRenderUnavailable(t *testing.T) {
	eng, b := newTestEngine(t, nil)
	held, err := b.Acquire(context.Background(), 1)
	require.NoError(t, err)

	_, err = eng.Generate(context.Background(), binarySTL(t, kernel.Cube(10)), "stl")
	require.ErrorIs(t, err, render.ErrRenderUnavailable)

	held.Release()
	_, err = eng.Generate(context.Background(), binarySTL(t, kernel.Cube(10)), "stl")
	require.NoError(t, err, "pipeline should recover once a context is free")
	require.Zero(t, b.Active())
}

func TestGenerateCancelled(t *testing.T) {
	eng, b := newTestEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.Generate(ctx, binarySTL(t, kernel.Cube(10)), "stl")
	require.ErrorIs(t, err, context.Canceled)

	require.Eventually(t, func() bool { return b.Active() == 0 }, time.Second, 5*time.Millisecond)
}

func TestGenerateConcurrentMatchesSerial(t *testing.T) {
	data := binarySTL(t, kernel.Pyramid(20, 12))

	serial, _ := newTestEngine(t, nil)
	want, err := serial.Generate(context.Background(), data, "stl")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Render.MaxContexts = 4
	cfg.Render.Concurrent = true
	parallel, b := newTestEngine(t, cfg)
	got, err := parallel.Generate(context.Background(), data, "stl")
	require.NoError(t, err)
	require.Zero(t, b.Active())

	for _, k := range view.Kinds {
		require.True(t, bytes.Equal(want.Views().Get(k).PNG, got.Views().Get(k).PNG), "%v differs", k)
	}
}

func TestPhases(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	data := binarySTL(t, kernel.Box(40, 20, 10))

	f, err := eng.Validate(data, "stl")
	require.NoError(t, err)
	require.Equal(t, format.Binary, f)

	m, err := eng.Parse(data, f)
	require.NoError(t, err)
	s := eng.Summarize(m)
	require.Equal(t, v3.Vec{X: 20, Y: 10, Z: 5}, s.Center)

	set := eng.PlanViews(s.Bounds)
	require.Equal(t, view.Plan(kernel.BoundingBox{
		Min: v3.Vec{X: -20, Y: -10, Z: -5},
		Max: v3.Vec{X: 20, Y: 10, Z: 5},
	}), set)

	views, err := eng.RenderViews(context.Background(), m, s, set)
	require.NoError(t, err)
	for _, k := range view.Kinds {
		requirePNG(t, views.Get(k))
	}
}

func TestDrawing(t *testing.T) {
	eng, b := newTestEngine(t, nil)
	sheet, err := eng.Drawing(context.Background(), asciiSTL(t, kernel.Box(40, 20, 10)), "stl")
	require.NoError(t, err)
	require.Len(t, sheet.Panels, 3)
	require.Zero(t, b.Active())

	var svg bytes.Buffer
	require.NoError(t, sheet.WriteSVG(&svg))
	require.Contains(t, svg.String(), "40.00")
}

func TestMetadataJSON(t *testing.T) {
	s := kernel.Summarize(kernel.Cube(10))
	data, err := NewMetadata(s).JSON()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 5)
	require.Equal(t, 10.0, got["dimensionX"])
	require.Equal(t, 10.0, got["dimensionY"])
	require.Equal(t, 10.0, got["dimensionZ"])
	require.Equal(t, 12.0, got["triangleCount"])
	require.InDelta(t, 1.0, got["volumeCm3"], 1e-9)
}

func TestDataURI(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	res, err := eng.Generate(context.Background(), binarySTL(t, kernel.Cube(10)), "stl")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.Iso.DataURI(), "data:image/png;base64,"))
}

func TestRenderOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Supersample = 3
	cfg.Render.MaxContexts = 2
	cfg.Render.EdgeAngle = 45
	cfg.Render.AcquireTimeout = config.Duration(time.Second)

	o := RenderOptions(cfg)
	require.Equal(t, 3, o.Supersample)
	require.Equal(t, 2, o.MaxSurfaces)
	require.Equal(t, 45.0, o.EdgeAngle)
	require.Equal(t, time.Second, o.AcquireTimeout)
	require.Equal(t, 800, o.Width)
}

func TestRunRecoversPanic(t *testing.T) {
	_, err := run(context.Background(), time.Second, func(context.Context) (int, error) {
		panic("boom")
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "panic")
	require.Contains(t, err.Error(), "boom")
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	_, err := run(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(time.Second)
		return 0, ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRunReturnsValue(t *testing.T) {
	v, err := run(context.Background(), 0, func(context.Context) (float64, error) {
		return math.Pi, nil
	})
	require.NoError(t, err)
	require.Equal(t, math.Pi, v)
}
