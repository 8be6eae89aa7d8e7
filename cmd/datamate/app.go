package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hession/datamate/internal/agent"
	"github.com/hession/datamate/internal/config"
	"github.com/hession/datamate/internal/llm"
	"github.com/hession/datamate/internal/logger"
	"github.com/hession/datamate/internal/metrics"
	"github.com/hession/datamate/internal/safety"
	"github.com/hession/datamate/internal/store"
	"github.com/hession/datamate/internal/tools"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// app the wired components shared by every subcommand
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    *store.SQLiteStore
	registry *tools.Registry
	prompts  *config.PromptConfig

	closers []io.Closer
}

// newApp loads configuration and opens the dataset. The model client is
// built separately since summary and tools never talk to the model.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, logCloser, err := logger.New(logger.Config{
		LogDir:     cfg.LogDirectory(),
		Level:      cfg.Log.Level,
		MaxDays:    cfg.Log.MaxDays,
		ConsoleOut: cfg.Log.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, log: log, closers: []io.Closer{logCloser}}
	logConfigInfo(log, cfg)

	a.registry, err = tools.NewDefaultRegistry()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}

	a.store, err = store.NewSQLiteStore(ctx, cfg.Data.DBPath, store.Options{
		MaxOpenConns:    cfg.Data.MaxOpenConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
	})
	if err != nil {
		a.Close()
		if errors.Is(err, store.ErrDatabaseNotFound) {
			return nil, fmt.Errorf("%w (set data.db_path in config.yaml or DATAMATE_DB_PATH)", err)
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	// closed before the log file so shutdown errors still get logged
	a.closers = append([]io.Closer{a.store}, a.closers...)

	prompts, err := config.LoadPromptConfig()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load prompt config, using defaults")
		prompts = config.DefaultPromptConfig()
	}
	a.prompts = prompts

	return a, nil
}

// newAgent builds the question loop. reg may be nil to skip metric registration.
func (a *app) newAgent(reg prometheus.Registerer, opts ...agent.Option) (*agent.Agent, error) {
	if !a.cfg.IsAPIKeyConfigured() {
		return nil, errors.New("API key not configured: set OPENAI_API_KEY or add it to config/.secrets")
	}

	client := llm.NewOpenAIClient(a.cfg.Model.APIKey, a.cfg.Model.BaseURL, a.cfg.Model.Model)
	handlers := tools.NewHandlers(a.store, a.log.With().Str("component", "tools").Logger())

	base := []agent.Option{
		agent.WithSystemPrompt(a.prompts.GetSystemPrompt()),
		agent.WithMaxTokens(a.cfg.Model.MaxTokens),
		agent.WithTimeout(a.cfg.Timeout()),
		agent.WithLogger(a.log.With().Str("component", "agent").Logger()),
		agent.WithMetrics(metrics.New(reg)),
	}

	filter := safety.NewFilter(a.cfg.Safety.ExtraDenylist...)
	return agent.New(client, a.registry, handlers, filter, append(base, opts...)...), nil
}

// Close releases the dataset and the log file
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// logConfigInfo records the effective configuration. The API key is never logged.
func logConfigInfo(log zerolog.Logger, cfg *config.Config) {
	log.Info().
		Str("model", cfg.Model.Model).
		Str("base_url", cfg.Model.BaseURL).
		Int("max_tokens", cfg.Model.MaxTokens).
		Int("timeout_seconds", cfg.Model.TimeoutSeconds).
		Bool("api_key_configured", cfg.IsAPIKeyConfigured()).
		Str("db_path", cfg.Data.DBPath).
		Strs("extra_denylist", cfg.Safety.ExtraDenylist).
		Msg("configuration loaded")
}
