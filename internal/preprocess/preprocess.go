package preprocess

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/irepack/irepack/internal/hub"
)

const channels = 3

// Preprocessor turns a raw image into the normalized NCHW float32 tensor
// the model expects, following the snapshot's processor configuration.
type Preprocessor struct {
	cfg *hub.ProcessorConfig
}

// New creates a Preprocessor for the given processor configuration.
func New(cfg *hub.ProcessorConfig) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// FromFile decodes the image at path and preprocesses it.
func (p *Preprocessor) FromFile(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return p.FromImage(img)
}

// FromImage preprocesses a decoded image: shortest-edge resize, center crop,
// rescale, and per-channel normalization, producing shape (1, 3, S, S).
func (p *Preprocessor) FromImage(img image.Image) (*Tensor, error) {
	size := p.cfg.TargetSize()
	if size <= 0 {
		return nil, fmt.Errorf("processor config has no target size")
	}

	if p.cfg.DoResize {
		// Below the high-resolution threshold the processor resizes the
		// shortest edge to size/crop_pct and center-crops; at or above it,
		// it resizes directly to the square target.
		if size < 384 {
			shortest := int(float64(size)/p.cfg.CropPct + 0.5)
			img = resizeShortestEdge(img, shortest)
			img = imaging.CropCenter(img, size, size)
		} else {
			img = resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
		}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width != size || height != size {
		return nil, fmt.Errorf("unexpected image size %dx%d after preprocessing, want %dx%d", width, height, size, size)
	}

	data := make([]float32, channels*height*width)
	plane := height * width

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			idx := y*width + x
			data[idx] = p.pixel(float64(r>>8), 0)
			data[plane+idx] = p.pixel(float64(g>>8), 1)
			data[2*plane+idx] = p.pixel(float64(b>>8), 2)
		}
	}

	return &Tensor{
		Shape: []int{1, channels, height, width},
		Data:  data,
	}, nil
}

// pixel applies the rescale and normalize policy to one channel value.
func (p *Preprocessor) pixel(v float64, channel int) float32 {
	if p.cfg.Rescale() {
		v *= p.cfg.RescaleFactor
	}
	if p.cfg.DoNormalize {
		v = (v - p.cfg.ImageMean[channel]) / p.cfg.ImageStd[channel]
	}
	return float32(v)
}

// resizeShortestEdge scales img so its shortest edge equals target,
// preserving aspect ratio.
func resizeShortestEdge(img image.Image, target int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w < h {
		return resize.Resize(uint(target), 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, uint(target), img, resize.Lanczos3)
}

// BinPath derives the tensor output path from the image path: everything
// before the first dot, with a .bin extension.
func BinPath(imagePath string) string {
	return strings.SplitN(imagePath, ".", 2)[0] + ".bin"
}
