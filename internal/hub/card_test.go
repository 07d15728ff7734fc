package hub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshotFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadCard(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, CardFilename, `{
		"architectures": ["ResNetForImageClassification"],
		"model_type": "resnet",
		"num_channels": 3,
		"id2label": {"0": "tench", "1": "goldfish", "2": "great white shark"}
	}`)

	card, err := LoadCard(dir)
	require.NoError(t, err)

	assert.Equal(t, "resnet", card.ModelType)
	assert.Equal(t, 3, card.NumChannels)

	labels, err := card.Labels()
	require.NoError(t, err)
	assert.Equal(t, []string{"tench", "goldfish", "great white shark"}, labels)
}

func TestLoadCard_MissingFile(t *testing.T) {
	_, err := LoadCard(t.TempDir())
	assert.Error(t, err)
}

func TestCardLabels_Empty(t *testing.T) {
	card := &Card{}

	_, err := card.Labels()
	assert.ErrorIs(t, err, ErrNoLabels)
}

func TestCardLabels_SparseIndex(t *testing.T) {
	card := &Card{ID2Label: map[string]string{"0": "tench", "2": "shark"}}

	_, err := card.Labels()
	assert.ErrorIs(t, err, ErrSparseLabels)
}

func TestLoadProcessorConfig_LegacySize(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, ProcessorFilename, `{
		"image_processor_type": "ConvNextImageProcessor",
		"do_resize": true,
		"do_normalize": true,
		"crop_pct": 0.875,
		"size": 224,
		"image_mean": [0.485, 0.456, 0.406],
		"image_std": [0.229, 0.224, 0.225]
	}`)

	cfg, err := LoadProcessorConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 224, cfg.TargetSize())
	assert.Equal(t, 0.875, cfg.CropPct)
	assert.True(t, cfg.Rescale())
	assert.InDelta(t, 1.0/255.0, cfg.RescaleFactor, 1e-9)
}

func TestLoadProcessorConfig_KeyedSize(t *testing.T) {
	dir := t.TempDir()
	writeSnapshotFile(t, dir, ProcessorFilename, `{
		"image_processor_type": "ViTImageProcessor",
		"do_resize": true,
		"do_normalize": true,
		"do_rescale": false,
		"size": {"shortest_edge": 256}
	}`)

	cfg, err := LoadProcessorConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.TargetSize())
	assert.False(t, cfg.Rescale())

	// ImageNet fallbacks fill in when the config omits the statistics.
	assert.Equal(t, defaultImageMean, cfg.ImageMean)
	assert.Equal(t, defaultImageStd, cfg.ImageStd)
}
