package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/irepack/irepack/internal/config"
	"github.com/irepack/irepack/internal/envvar"
	"github.com/irepack/irepack/internal/hub"
	"github.com/irepack/irepack/internal/xfs"
)

// Manager orchestrates the model snapshot lifecycle.
type Manager struct {
	downloader hub.Downloader
	registry   *Registry
	mu         sync.RWMutex
}

// NewManager creates a Manager backed by the given downloader.
func NewManager(downloader hub.Downloader) *Manager {
	return &Manager{
		downloader: downloader,
		registry:   NewRegistry(),
	}
}

// Registry returns the model registry.
func (m *Manager) Registry() *Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry
}

// Fetch downloads the configured model snapshot into the cache, parses its
// card and preprocessor configuration, and registers the instance.
func (m *Manager) Fetch(ctx context.Context, cfg *config.Config) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	modelsPath := resolveModelsPath(cfg)
	if err := xfs.EnsureDir(modelsPath); err != nil {
		return nil, fmt.Errorf("failed to prepare models directory %s: %w", modelsPath, err)
	}

	instance := NewInstance(&cfg.Model, cfg.Model.Repo, "")
	instance.SetStatus(StatusFetching)

	downloadPath, cached, err := m.downloader.Download(ctx, &cfg.Model, modelsPath)
	if err != nil {
		instance.SetStatus(StatusFailed)
		instance.SetError(err)
		return nil, fmt.Errorf("failed to download model %s into %s: %w", cfg.Model.Repo, modelsPath, err)
	}
	instance.Path = downloadPath

	card, err := hub.LoadCard(downloadPath)
	if err != nil {
		instance.SetStatus(StatusFailed)
		instance.SetError(err)
		return nil, fmt.Errorf("failed to load model card for %s: %w", cfg.Model.Repo, err)
	}
	instance.Card = card

	processor, err := hub.LoadProcessorConfig(downloadPath)
	if err != nil {
		instance.SetStatus(StatusFailed)
		instance.SetError(err)
		return nil, fmt.Errorf("failed to load processor config for %s: %w", cfg.Model.Repo, err)
	}
	instance.Processor = processor

	instance.SetStatus(StatusReady)
	m.registry.Set(instance)

	slog.Info("Model loaded into registry",
		"model_id", instance.ID,
		"download_path", downloadPath,
		"cached", cached,
		"labels", len(card.ID2Label))

	return instance, nil
}

// resolveModelsPath returns the path to the models directory.
// Precedence:
// 1. IREPACK_MODELS_PATH environment variable.
// 2. ModelsDir field in the config.
// 3. Default models path.
func resolveModelsPath(cfg *config.Config) string {
	if p := os.Getenv(envvar.IrepackModelsPath); p != "" {
		return xfs.ExpandTilde(p)
	}
	if cfg.Storage.ModelsDir != "" {
		return xfs.ExpandTilde(cfg.Storage.ModelsDir)
	}
	return xfs.ExpandTilde(config.DefaultModelsPath())
}
