package hub

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/irepack/irepack/internal/config"
	"github.com/irepack/irepack/internal/envvar"
)

const (
	defaultRetryDelay = 2 * time.Second
	defaultMaxRetries = 3
	defaultTimeout    = 5 * time.Minute
	defaultBinary     = "hf"
	markerFilename    = ".irepack-downloaded"
)

// Downloader fetches a model snapshot into a local cache directory.
type Downloader interface {
	Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (path string, cached bool, err error)
}

// CLIDownloader downloads a model snapshot with the hub's CLI.
type CLIDownloader struct{}

// Download downloads the configured repo to targetDir/<repo>. A marker file
// records the repo and revision so an unchanged snapshot is not fetched again.
func (d *CLIDownloader) Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error) {
	repo := strings.TrimSpace(modelConfig.Repo)
	if repo == "" {
		return "", false, fmt.Errorf("invalid repo name: %q", modelConfig.Repo)
	}

	fullPath := filepath.Join(targetDir, repo)
	markerPath := filepath.Join(fullPath, markerFilename)
	markerContent := d.markerContent(repo, modelConfig.Revision)

	if _, err := os.Stat(markerPath); err == nil {
		if !d.shouldRedownload(markerPath, markerContent) && !modelConfig.ForceDownload {
			slog.Info("Snapshot already downloaded and up-to-date (marker match), skipping", "repo", repo, "path", fullPath)
			return fullPath, true, nil
		}
	}

	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create directory: %w", err)
	}

	args := []string{
		"download",
		repo,
		"--local-dir", fullPath,
	}

	if modelConfig.Revision != "" {
		args = append(args, "--revision", modelConfig.Revision)
	}
	for _, inc := range modelConfig.Include {
		args = append(args, "--include", inc)
	}
	for _, exc := range modelConfig.Exclude {
		args = append(args, "--exclude", exc)
	}
	if modelConfig.ForceDownload {
		args = append(args, "--force-download")
	}
	if modelConfig.Token != "" {
		args = append(args, "--token", modelConfig.Token)
	}
	if modelConfig.MaxWorkers > 0 {
		args = append(args, "--max-workers", fmt.Sprintf("%d", modelConfig.MaxWorkers))
	}

	binary := defaultBinary
	if b := os.Getenv(envvar.IrepackHubBinary); b != "" {
		binary = b
	}

	var lastErr error
	for attempt := 0; attempt < defaultMaxRetries; attempt++ {
		if attempt > 0 {
			slog.Info("Retrying download", "repo", repo, "attempt", attempt+1, "last_error", lastErr)
			time.Sleep(defaultRetryDelay)
		} else {
			slog.Info("Downloading model snapshot", "repo", repo, "path", fullPath)
		}

		delayCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		cmd := exec.CommandContext(delayCtx, binary, args...)
		output, err := cmd.CombinedOutput()
		cancel()

		if err == nil {
			if err := os.WriteFile(markerPath, []byte(markerContent), 0o644); err != nil {
				slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
			}

			slog.Info("Model snapshot downloaded", "repo", repo, "path", fullPath, "attempt", attempt+1)
			return fullPath, false, nil
		}

		lastErr = err
		slog.Error("Failed to download model snapshot", "repo", repo, "path", fullPath, "attempt", attempt+1, "error", err, "output", string(output))

		if delayCtx.Err() == context.DeadlineExceeded {
			slog.Warn("Download timed out", "repo", repo, "path", fullPath, "attempt", attempt+1)
		} else if delayCtx.Err() == context.Canceled {
			return "", false, fmt.Errorf("download canceled: %w", err)
		}
	}

	return "", false, lastErr
}

// markerContent generates the expected content of the marker file.
// Used to detect if we need to redownload due to config change.
func (d *CLIDownloader) markerContent(repo, revision string) string {
	return fmt.Sprintf("repo: %s\nrevision: %s\n", repo, revision)
}

// shouldRedownload checks if the snapshot should be redownloaded by comparing marker content.
func (d *CLIDownloader) shouldRedownload(markerPath, expectedContent string) bool {
	content, err := os.ReadFile(markerPath)
	if err != nil {
		slog.Debug("Marker file missing or unreadable", "path", markerPath, "error", err)
		return true
	}

	if string(content) != expectedContent {
		slog.Info("Model config changed (marker mismatch), will redownload",
			"marker_path", markerPath,
			"expected_snippet", expectedContent,
			"actual_snippet", string(content))
		return true
	}

	return false
}
