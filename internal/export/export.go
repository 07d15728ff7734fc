package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/irepack/irepack/internal/model"
	"github.com/irepack/irepack/internal/xfs"
)

// SignatureManifestFilename is the serving manifest written into the
// exported version directory.
const SignatureManifestFilename = "signature.yaml"

// versionDir is the single version the layout carries, mirroring the
// SavedModel convention of numbered version directories.
const versionDir = "1"

// TensorSpec describes one tensor of a serving signature.
type TensorSpec struct {
	Name  string `yaml:"name"`
	DType string `yaml:"dtype"`
	Shape []int  `yaml:"shape"`
}

// Signature is a named entry point with fixed input and output shapes.
type Signature struct {
	Name    string       `yaml:"name"`
	Method  string       `yaml:"method"`
	Inputs  []TensorSpec `yaml:"inputs"`
	Outputs []TensorSpec `yaml:"outputs"`
}

// Manifest is the signature manifest serialized alongside the model
// artifacts.
type Manifest struct {
	Model      string      `yaml:"model"`
	Signatures []Signature `yaml:"signatures"`
}

// ServingSignature builds the fixed-shape serving_default entry point:
// pixel_values 1x3xSxS float32 in, logits 1xN float32 out.
func ServingSignature(name string, size, numLabels int) Signature {
	return Signature{
		Name:   name,
		Method: "serve",
		Inputs: []TensorSpec{
			{Name: "pixel_values", DType: "float32", Shape: []int{1, 3, size, size}},
		},
		Outputs: []TensorSpec{
			{Name: "logits", DType: "float32", Shape: []int{1, numLabels}},
		},
	}
}

// Exporter writes a fetched model into the directory-based serialized
// layout the conversion tool consumes.
type Exporter struct{}

// Export writes <dir>/saved_model/1/ containing the snapshot's model
// artifacts and the signature manifest. A stale export directory is removed
// first, including a non-empty one. It returns the version directory path.
func (e *Exporter) Export(instance *model.Instance, dir string, sig Signature) (string, error) {
	if err := xfs.RemoveIfPresent(dir); err != nil {
		return "", err
	}

	versionPath := filepath.Join(dir, "saved_model", versionDir)
	if err := xfs.EnsureDir(versionPath); err != nil {
		return "", err
	}

	copied, err := e.copyArtifacts(instance.Path, versionPath)
	if err != nil {
		return "", err
	}
	if copied == 0 {
		return "", fmt.Errorf("snapshot %s contains no model artifacts", instance.Path)
	}

	manifest := Manifest{
		Model:      instance.ID,
		Signatures: []Signature{sig},
	}

	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signature manifest: %w", err)
	}

	manifestPath := filepath.Join(versionPath, SignatureManifestFilename)
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write signature manifest: %w", err)
	}

	slog.Info("Model exported",
		"model_id", instance.ID,
		"path", versionPath,
		"artifacts", copied,
		"signature", sig.Name)

	return versionPath, nil
}

// copyArtifacts copies the snapshot's model artifact files into the version
// directory and returns how many were copied.
func (e *Exporter) copyArtifacts(snapshotPath, versionPath string) (int, error) {
	entries, err := os.ReadDir(snapshotPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot %s: %w", snapshotPath, err)
	}

	copied := 0
	for _, entry := range entries {
		if entry.IsDir() || !isArtifact(entry.Name()) {
			continue
		}

		src := filepath.Join(snapshotPath, entry.Name())
		dst := filepath.Join(versionPath, entry.Name())
		if err := xfs.CopyFile(src, dst); err != nil {
			return copied, err
		}
		copied++
	}

	return copied, nil
}

// isArtifact reports whether a snapshot file belongs in the export: the
// model configuration plus any serialized graph or weight file.
func isArtifact(name string) bool {
	if name == "config.json" {
		return true
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".h5", ".pb", ".safetensors", ".msgpack", ".bin", ".onnx":
		return true
	}
	return false
}
