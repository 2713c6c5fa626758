// ABOUTME: Shared wiring for commands: config, logger, provider and assistant
// ABOUTME: The backend factory is a variable so tests can substitute fakes
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/assistant"
	"github.com/harper/ragmem/internal/config"
	"github.com/harper/ragmem/internal/llm"
	"github.com/harper/ragmem/internal/logger"
)

// newBackend builds the model provider for a loaded config
var newBackend = func(ctx context.Context, cfg *config.Config, log *zap.Logger) (llm.Provider, error) {
	return llm.New(ctx, cfg.ProviderOptions(log))
}

type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	provider  llm.Provider
	assistant *assistant.Assistant
}

func newApp(ctx context.Context) (*app, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Env, logLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	provider, err := newBackend(ctx, cfg, log.Named("llm"))
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	asst := assistant.New(assistant.Options{
		Backend:         provider,
		IndexDir:        cfg.IndexDir,
		DocsDir:         cfg.DocsDir,
		MemoryDir:       cfg.MemoryDir,
		ChunkSize:       cfg.ChunkSize,
		ChunkOverlap:    cfg.ChunkOverlap,
		TopK:            cfg.TopK,
		MemoryThreshold: cfg.MemoryThreshold,
		Logger:          log,
	})

	log.Debug("ragmem initialized",
		zap.String("provider", provider.Name()),
		zap.String("docs_dir", cfg.DocsDir),
		zap.String("index_dir", cfg.IndexDir),
		zap.String("memory_dir", cfg.MemoryDir),
	)

	return &app{cfg: cfg, logger: log, provider: provider, assistant: asst}, nil
}

// Close releases the provider and flushes logs
func (a *app) Close() {
	if err := a.provider.Close(); err != nil {
		a.logger.Warn("Closing provider failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// logLevel lets the global flags override RAGMEM_LOG_LEVEL
func logLevel(configured string) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	case configured != "":
		return configured
	default:
		return "info"
	}
}
