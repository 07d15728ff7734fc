package hub

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProcessorFilename is the preprocessor configuration file inside a snapshot.
const ProcessorFilename = "preprocessor_config.json"

// ImageNet statistics, the hub's fallback when a processor config omits them.
var (
	defaultImageMean = []float64{0.485, 0.456, 0.406}
	defaultImageStd  = []float64{0.229, 0.224, 0.225}
)

// ProcessorConfig mirrors a snapshot's preprocessor_config.json. It drives
// the resize, crop, rescale, and normalize policy applied to input images.
type ProcessorConfig struct {
	ProcessorClass string    `json:"image_processor_type"`
	DoResize       bool      `json:"do_resize"`
	DoNormalize    bool      `json:"do_normalize"`
	DoRescale      *bool     `json:"do_rescale,omitempty"`
	CropPct        float64   `json:"crop_pct"`
	Size           SizeSpec  `json:"size"`
	RescaleFactor  float64   `json:"rescale_factor"`
	ImageMean      []float64 `json:"image_mean"`
	ImageStd       []float64 `json:"image_std"`
}

// SizeSpec accepts both the legacy plain-integer form (``"size": 224``) and
// the keyed form (``"size": {"shortest_edge": 224}``).
type SizeSpec struct {
	ShortestEdge int
	Height       int
	Width        int
}

// UnmarshalJSON implements json.Unmarshaler for both size encodings.
func (s *SizeSpec) UnmarshalJSON(data []byte) error {
	var plain int
	if err := json.Unmarshal(data, &plain); err == nil {
		s.ShortestEdge = plain
		return nil
	}

	var keyed struct {
		ShortestEdge int `json:"shortest_edge"`
		Height       int `json:"height"`
		Width        int `json:"width"`
	}
	if err := json.Unmarshal(data, &keyed); err != nil {
		return fmt.Errorf("unsupported size encoding: %w", err)
	}

	s.ShortestEdge = keyed.ShortestEdge
	s.Height = keyed.Height
	s.Width = keyed.Width
	return nil
}

// LoadProcessorConfig reads preprocessor_config.json from a snapshot
// directory and fills missing normalization fields with ImageNet defaults.
func LoadProcessorConfig(snapshotPath string) (*ProcessorConfig, error) {
	data, err := os.ReadFile(filepath.Join(snapshotPath, ProcessorFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to read processor config: %w", err)
	}

	var cfg ProcessorConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse processor config: %w", err)
	}

	cfg.fillDefaults()

	return &cfg, nil
}

func (p *ProcessorConfig) fillDefaults() {
	if p.RescaleFactor == 0 {
		p.RescaleFactor = 1.0 / 255.0
	}
	if len(p.ImageMean) == 0 {
		p.ImageMean = defaultImageMean
	}
	if len(p.ImageStd) == 0 {
		p.ImageStd = defaultImageStd
	}
	if p.CropPct == 0 {
		p.CropPct = 0.875
	}
}

// TargetSize returns the square output side length of the processor.
func (p *ProcessorConfig) TargetSize() int {
	if p.Size.Height > 0 {
		return p.Size.Height
	}
	return p.Size.ShortestEdge
}

// Rescale reports whether pixel values are scaled by RescaleFactor. Older
// processor configs predate the do_rescale flag and always rescale.
func (p *ProcessorConfig) Rescale() bool {
	if p.DoRescale == nil {
		return true
	}
	return *p.DoRescale
}
