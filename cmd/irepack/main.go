package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"

	"github.com/irepack/irepack/internal/backend"
	"github.com/irepack/irepack/internal/backend/iree"
	"github.com/irepack/irepack/internal/backend/onnx"
	"github.com/irepack/irepack/internal/config"
	"github.com/irepack/irepack/internal/env"
	"github.com/irepack/irepack/internal/export"
	"github.com/irepack/irepack/internal/hub"
	"github.com/irepack/irepack/internal/logger"
	"github.com/irepack/irepack/internal/model"
	"github.com/irepack/irepack/internal/pipeline"
	"github.com/irepack/irepack/internal/service"
	"github.com/irepack/irepack/internal/toolchain"
	"github.com/irepack/irepack/internal/watch"
)

func main() {
	var (
		flagConfigPath = flag.String("config", "", "Path to config file (defaults apply when omitted)")
		flagSchemaPath = flag.String("schema", path.Join(config.DefaultConfigPath(), "irepack.v1.schema.json"), "Path to schema file")
		flagModelsDir  = flag.String("models-dir", "", "Model snapshot cache directory")
		flagWatchDir   = flag.String("watch", "", "Watch a directory and preprocess images written into it")
		flagClassify   = flag.Bool("classify", false, "Classify the input image after conversion")
		flagBytecode   = flag.Bool("bytecode", false, "Additionally emit the bytecode output variant")
	)
	flag.Parse()

	environment := env.FromEnv()

	slog.SetDefault(
		logger.New(environment,
			logger.WithLogToFile(true),
			logger.WithLogFile("logs/irepack.log"),
		),
	)

	if err := run(*flagConfigPath, *flagSchemaPath, *flagModelsDir, *flagWatchDir, *flagClassify, *flagBytecode, flag.Arg(0)); err != nil {
		slog.Error("Pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, schemaPath, modelsDir, watchDir string, classify, bytecode bool, imagePath string) error {
	cfg, err := loadConfig(configPath, schemaPath)
	if err != nil {
		return err
	}

	if modelsDir != "" {
		cfg.Storage.ModelsDir = modelsDir
	}
	if bytecode {
		cfg.Pipeline.EmitBytecode = true
	}

	importer, err := toolchain.NewImporter(cfg.Import)
	if err != nil {
		return err
	}

	manager := model.NewManager(&hub.CLIDownloader{})
	p := pipeline.New(cfg, manager, &export.Exporter{}, importer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchDir != "" {
		return runWatch(ctx, p, watchDir)
	}

	if imagePath == "" {
		return errors.New("usage: irepack [flags] <image>")
	}

	artifacts, err := p.Run(ctx, imagePath)
	if err != nil {
		return err
	}

	slog.Info("Pipeline finished",
		"tensor", artifacts.TensorPath,
		"export", artifacts.ExportPath,
		"labels", artifacts.LabelsPath,
		"output", artifacts.TextPath)

	if classify {
		return classifyArtifacts(ctx, cfg, p, manager, artifacts)
	}

	return nil
}

// loadConfig loads and validates the config file, or falls back to the
// stock defaults when no file is given.
func loadConfig(configPath, schemaPath string) (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}

	cfg, err := config.LoadAndValidate(configPath, schemaPath)
	if err != nil {
		return nil, err
	}

	slog.Info("Config loaded successfully", "config", configPath, "schema", schemaPath)
	return cfg, nil
}

// runWatch preprocesses every image written into dir until interrupted.
func runWatch(ctx context.Context, p *pipeline.Pipeline, dir string) error {
	// Fetch up front so the first image does not pay the download.
	if _, err := p.Instance(ctx); err != nil {
		return err
	}

	watcher, err := watch.New(dir, func(imagePath string) {
		if _, _, err := p.Preprocess(ctx, imagePath); err != nil {
			slog.Error("Failed to preprocess image", "image", imagePath, "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	slog.Info("Watching for images", "dir", dir)
	<-ctx.Done()

	slog.Info("Shutting down", "handled", watcher.HandledCount())
	return nil
}

// classifyArtifacts runs the configured classification backend on the
// produced artifacts and logs the winning label.
func classifyArtifacts(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, manager *model.Manager, artifacts *pipeline.Artifacts) error {
	instance, err := p.Instance(ctx)
	if err != nil {
		return err
	}

	backends := backend.NewRegistry()
	defer backends.Close()

	provider := backend.Provider(cfg.Classify.Backend)
	switch provider {
	case backend.ProviderONNX:
		if err := backends.Register(onnx.NewBackend(len(instance.Card.ID2Label))); err != nil {
			return err
		}
	case backend.ProviderIREE:
		b, err := iree.NewBackend()
		if err != nil {
			return err
		}
		if err := backends.Register(b); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown classification backend %q", cfg.Classify.Backend)
	}

	modelPath := cfg.Classify.ModelFile
	switch {
	case modelPath == "":
		modelPath = artifacts.TextPath
	case !filepath.IsAbs(modelPath):
		modelPath = filepath.Join(instance.Path, modelPath)
	}

	classifier := service.NewClassifier(backends, manager.Registry())

	result, err := classifier.Classify(ctx, provider, instance.ID, &backend.Request{
		ModelPath:  modelPath,
		TensorPath: artifacts.TensorPath,
		Shape:      artifacts.TensorShape,
		Parameters: cfg.Classify.Parameters,
	})
	if err != nil {
		return err
	}

	slog.Info("Image classified",
		"label", result.Label,
		"index", result.Index,
		"score", result.Score,
		"backend", provider)

	return nil
}
