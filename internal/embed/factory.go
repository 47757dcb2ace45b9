package embed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/akodali/logsonar/internal/config"
)

// NewFromConfig constructs the configured embedder. The "ollama" provider
// wraps model resolution in a cross-process file lock so concurrent
// instances don't race on a model pull; "static" needs no setup.
func NewFromConfig(ctx context.Context, cfg config.EmbeddingsConfig) (Embedder, error) {
	switch cfg.Provider {
	case "static":
		return NewStaticEmbedder(), nil

	case "ollama":
		lock := NewFileLock(stateDir())
		if err := lock.Lock(); err != nil {
			// Lock failure degrades to an unserialized start, not a fatal.
			slog.Warn("model lock unavailable", slog.String("error", err.Error()))
		} else {
			defer func() { _ = lock.Unlock() }()
		}

		ollamaCfg := DefaultOllamaConfig()
		if cfg.Host != "" {
			ollamaCfg.Host = cfg.Host
		}
		if cfg.Model != "" {
			ollamaCfg.Model = cfg.Model
		}
		if cfg.Dimensions > 0 {
			ollamaCfg.Dimensions = cfg.Dimensions
		}
		if cfg.BatchSize > 0 {
			ollamaCfg.BatchSize = cfg.BatchSize
		}
		if cfg.Timeout > 0 {
			ollamaCfg.Timeout = cfg.Timeout
		}

		return NewOllamaEmbedder(ctx, ollamaCfg)

	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", cfg.Provider)
	}
}

// stateDir returns the directory for embedder runtime state (lock files).
func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".logsonar")
	}
	return filepath.Join(home, ".logsonar")
}
