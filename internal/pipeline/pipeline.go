package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/irepack/irepack/internal/config"
	"github.com/irepack/irepack/internal/export"
	"github.com/irepack/irepack/internal/model"
	"github.com/irepack/irepack/internal/preprocess"
)

// Fetcher acquires the model snapshot.
type Fetcher interface {
	Fetch(ctx context.Context, cfg *config.Config) (*model.Instance, error)
}

// Exporter writes the serialized model directory.
type Exporter interface {
	Export(instance *model.Instance, dir string, sig export.Signature) (string, error)
}

// Importer converts the exported directory to the intermediate representation.
type Importer interface {
	Import(ctx context.Context, exportPath, outputPath string, bytecode bool) error
}

// Artifacts names everything one pipeline run produced.
type Artifacts struct {
	TensorPath   string
	TensorShape  []int
	ExportPath   string
	LabelsPath   string
	TextPath     string
	BytecodePath string
}

// Pipeline runs the model preparation steps in order: fetch, preprocess,
// export, label dump, import. Collaborators are injected so each step can
// be substituted in tests.
type Pipeline struct {
	cfg      *config.Config
	fetcher  Fetcher
	exporter Exporter
	importer Importer

	instance *model.Instance
}

// New creates a Pipeline.
func New(cfg *config.Config, fetcher Fetcher, exporter Exporter, importer Importer) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		exporter: exporter,
		importer: importer,
	}
}

// Instance returns the fetched model, fetching it on first use.
func (p *Pipeline) Instance(ctx context.Context) (*model.Instance, error) {
	if p.instance != nil {
		return p.instance, nil
	}

	instance, err := p.fetcher.Fetch(ctx, p.cfg)
	if err != nil {
		return nil, err
	}

	p.instance = instance
	return instance, nil
}

// Preprocess runs one image through the model's preprocessor and writes the
// raw tensor bytes next to the image. It returns the tensor and its path.
func (p *Pipeline) Preprocess(ctx context.Context, imagePath string) (*preprocess.Tensor, string, error) {
	instance, err := p.Instance(ctx)
	if err != nil {
		return nil, "", err
	}

	tensor, err := preprocess.New(instance.Processor).FromFile(imagePath)
	if err != nil {
		return nil, "", err
	}

	slog.Info("Image preprocessed", "image", imagePath, "shape", tensor.Shape)

	binPath := preprocess.BinPath(imagePath)
	if err := tensor.WriteFile(binPath); err != nil {
		return nil, "", err
	}

	slog.Info("Tensor written", "path", binPath, "bytes", tensor.NumElements()*4)

	return tensor, binPath, nil
}

// Run executes the full pipeline for one input image.
func (p *Pipeline) Run(ctx context.Context, imagePath string) (*Artifacts, error) {
	instance, err := p.Instance(ctx)
	if err != nil {
		return nil, err
	}

	tensor, binPath, err := p.Preprocess(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	labels, err := instance.Card.Labels()
	if err != nil {
		return nil, err
	}

	sig := export.ServingSignature(p.servingName(), instance.Processor.TargetSize(), len(labels))

	exportPath, err := p.exporter.Export(instance, p.cfg.Pipeline.ExportDir, sig)
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}

	if err := export.WriteLabels(p.cfg.Pipeline.LabelsFile, labels); err != nil {
		return nil, err
	}
	slog.Info("Labels written", "path", p.cfg.Pipeline.LabelsFile, "count", len(labels))

	if err := p.importer.Import(ctx, exportPath, p.cfg.Pipeline.TextOutput, false); err != nil {
		return nil, err
	}

	artifacts := &Artifacts{
		TensorPath:  binPath,
		TensorShape: tensor.Shape,
		ExportPath:  exportPath,
		LabelsPath:  p.cfg.Pipeline.LabelsFile,
		TextPath:    p.cfg.Pipeline.TextOutput,
	}

	if p.cfg.Pipeline.EmitBytecode {
		if err := p.importer.Import(ctx, exportPath, p.cfg.Pipeline.BytecodeFile, true); err != nil {
			return nil, err
		}
		artifacts.BytecodePath = p.cfg.Pipeline.BytecodeFile
	}

	return artifacts, nil
}

// servingName is the exported entry point, serving_default by default.
func (p *Pipeline) servingName() string {
	if len(p.cfg.Import.ExportedNames) > 0 {
		return p.cfg.Import.ExportedNames[0]
	}
	return config.DefaultServingName
}
