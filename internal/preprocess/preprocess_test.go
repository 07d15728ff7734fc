package preprocess

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irepack/irepack/internal/hub"
)

func testProcessorConfig() *hub.ProcessorConfig {
	return &hub.ProcessorConfig{
		DoResize:      true,
		DoNormalize:   true,
		CropPct:       0.875,
		Size:          hub.SizeSpec{ShortestEdge: 224},
		RescaleFactor: 1.0 / 255.0,
		ImageMean:     []float64{0.485, 0.456, 0.406},
		ImageStd:      []float64{0.229, 0.224, 0.225},
	}
}

// solidImage builds a uniform RGB image.
func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFromImage_ShapeIsFixed(t *testing.T) {
	p := New(testProcessorConfig())

	// Wildly different source sizes all land on (1, 3, 224, 224).
	for _, dims := range [][2]int{{640, 480}, {480, 640}, {224, 224}, {1000, 200}} {
		tensor, err := p.FromImage(solidImage(dims[0], dims[1], color.RGBA{R: 128, G: 128, B: 128, A: 255}))
		require.NoError(t, err)

		assert.Equal(t, []int{1, 3, 224, 224}, tensor.Shape)
		assert.Len(t, tensor.Data, 3*224*224)
	}
}

func TestFromImage_Normalization(t *testing.T) {
	p := New(testProcessorConfig())

	tensor, err := p.FromImage(solidImage(300, 300, color.RGBA{R: 255, G: 0, B: 127, A: 255}))
	require.NoError(t, err)

	plane := 224 * 224
	wantR := float32((1.0 - 0.485) / 0.229)
	wantG := float32((0.0 - 0.456) / 0.224)
	wantB := float32((127.0/255.0 - 0.406) / 0.225)

	assert.InDelta(t, wantR, tensor.Data[0], 1e-2)
	assert.InDelta(t, wantG, tensor.Data[plane], 1e-2)
	assert.InDelta(t, wantB, tensor.Data[2*plane], 1e-2)
}

func TestFromFile_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.png")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	p := New(testProcessorConfig())

	_, err := p.FromFile(path)
	assert.ErrorContains(t, err, "decode")
}

func TestFromFile_PNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.png")

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(64, 48, color.RGBA{R: 10, G: 20, B: 30, A: 255})))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	p := New(testProcessorConfig())

	tensor, err := p.FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 224, 224}, tensor.Shape)
}

func TestTensorBytes(t *testing.T) {
	tensor := &Tensor{
		Shape: []int{1, 1, 1, 2},
		Data:  []float32{1.5, -2.0},
	}

	raw := tensor.Bytes()
	require.Len(t, raw, 8)

	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(raw[0:4])))
	assert.Equal(t, float32(-2.0), math.Float32frombits(binary.LittleEndian.Uint32(raw[4:8])))
}

func TestTensorWriteFile_ByteLength(t *testing.T) {
	p := New(testProcessorConfig())

	tensor, err := p.FromImage(solidImage(500, 123, color.RGBA{A: 255}))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cat.bin")
	require.NoError(t, tensor.WriteFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1*3*224*224*4), info.Size())
}

func TestTensorWriteFile_ReplacesStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.bin")
	require.NoError(t, os.WriteFile(path, []byte("stale content"), 0o644))

	tensor := &Tensor{Shape: []int{1, 1, 1, 1}, Data: []float32{0}}
	require.NoError(t, tensor.WriteFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())
}

func TestBinPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cat.png", "cat.bin"},
		{"examples/cat.jpeg", "examples/cat.bin"},
		{"cat", "cat.bin"},
		{"cat.tar.gz", "cat.bin"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BinPath(tt.in), "input %q", tt.in)
	}
}
