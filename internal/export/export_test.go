package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/irepack/irepack/internal/config"
	"github.com/irepack/irepack/internal/model"
)

func fakeInstance(t *testing.T) *model.Instance {
	t.Helper()
	snapshot := t.TempDir()

	for name, content := range map[string]string{
		"config.json":    `{"model_type": "resnet"}`,
		"tf_model.h5":    "weights",
		"README.md":      "docs",
		".git-something": "noise",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(snapshot, name), []byte(content), 0o644))
	}

	return model.NewInstance(&config.ModelConfig{Repo: "microsoft/resnet-50"}, "microsoft/resnet-50", snapshot)
}

func TestExport_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resnet50")
	sig := ServingSignature("serving_default", 224, 1000)

	exporter := &Exporter{}
	versionPath, err := exporter.Export(fakeInstance(t), dir, sig)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "saved_model", "1"), versionPath)

	// Model artifacts are carried, documentation is not.
	assert.FileExists(t, filepath.Join(versionPath, "config.json"))
	assert.FileExists(t, filepath.Join(versionPath, "tf_model.h5"))
	assert.NoFileExists(t, filepath.Join(versionPath, "README.md"))

	data, err := os.ReadFile(filepath.Join(versionPath, SignatureManifestFilename))
	require.NoError(t, err)

	var manifest Manifest
	require.NoError(t, yaml.Unmarshal(data, &manifest))

	assert.Equal(t, "microsoft/resnet-50", manifest.Model)
	require.Len(t, manifest.Signatures, 1)
	assert.Equal(t, "serving_default", manifest.Signatures[0].Name)
	require.Len(t, manifest.Signatures[0].Inputs, 1)
	assert.Equal(t, []int{1, 3, 224, 224}, manifest.Signatures[0].Inputs[0].Shape)
	assert.Equal(t, []int{1, 1000}, manifest.Signatures[0].Outputs[0].Shape)
}

func TestExport_ClearsNonEmptyStaleDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resnet50")

	// A previous run left a populated export directory behind.
	stale := filepath.Join(dir, "saved_model", "1")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "old_weights.h5"), []byte("old"), 0o644))

	exporter := &Exporter{}
	versionPath, err := exporter.Export(fakeInstance(t), dir, ServingSignature("serving_default", 224, 2))
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(versionPath, "old_weights.h5"))
	assert.FileExists(t, filepath.Join(versionPath, "tf_model.h5"))
}

func TestExport_EmptySnapshot(t *testing.T) {
	instance := model.NewInstance(&config.ModelConfig{Repo: "x"}, "x", t.TempDir())

	exporter := &Exporter{}
	_, err := exporter.Export(instance, filepath.Join(t.TempDir(), "out"), ServingSignature("serving_default", 224, 2))
	assert.ErrorContains(t, err, "no model artifacts")
}

func TestWriteLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id2label.txt")
	labels := []string{"tench", "goldfish", "great white shark"}

	require.NoError(t, WriteLabels(path, labels))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, len(labels))
	for i, label := range labels {
		assert.Equal(t, label, lines[i])
	}
}

func TestWriteLabels_ReplacesStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id2label.txt")
	require.NoError(t, os.WriteFile(path, []byte("old\nlabels\nhere\nmore\n"), 0o644))

	require.NoError(t, WriteLabels(path, []string{"only"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "only\n", string(data))
}
