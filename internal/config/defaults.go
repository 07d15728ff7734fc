package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Defaults reproducing the original hard-coded pipeline behavior.
const (
	DefaultRepo         = "microsoft/resnet-50"
	DefaultExportDir    = "resnet50"
	DefaultLabelsFile   = "id2label.txt"
	DefaultTextOutput   = "resnet50_text.mlir"
	DefaultBytecodeFile = "resnet50.mlir"

	DefaultImporterBinary = "iree-import-tf"
	DefaultImportType     = "savedmodel_v1"
	DefaultServingName    = "serving_default"
)

// Default returns a configuration matching the stock pipeline: fetch
// resnet-50, export under ./resnet50, labels to id2label.txt, text MLIR to
// resnet50_text.mlir.
func Default() *Config {
	return &Config{
		Version: "1",
		Model: ModelConfig{
			Repo: DefaultRepo,
		},
		Pipeline: PipelineConfig{
			ExportDir:    DefaultExportDir,
			LabelsFile:   DefaultLabelsFile,
			TextOutput:   DefaultTextOutput,
			BytecodeFile: DefaultBytecodeFile,
		},
		Import: ImportOptions{
			Binary:        DefaultImporterBinary,
			ImportType:    DefaultImportType,
			ExportedNames: []string{DefaultServingName},
		},
		Classify: ClassifyConfig{
			Backend: "iree",
		},
	}
}

// DefaultConfigPath returns the default path for the irepack config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "irepack", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "irepack")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "irepack")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "irepack")
		}
		return filepath.Join(home, ".config", "irepack")
	}
}

// DefaultModelsPath returns the default path for the model snapshot cache.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "irepack", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "irepack", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "irepack", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "irepack", "models")
		}
		return filepath.Join(home, ".cache", "irepack", "models")
	}
}
