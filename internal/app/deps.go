package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"

	"prompt-patterns/internal/config"
	"prompt-patterns/internal/llm"
	"prompt-patterns/internal/logger"
	"prompt-patterns/internal/patterns"
)

// Deps bundles common runtime dependencies for both binaries.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	LLM      llm.Client
	Patterns *patterns.Service
}

// Build loads env, config, and the provider client selected by PROVIDER.
// Logs go to logOut. Configuration problems are returned as
// *config.ConfigurationError and must stop the process.
func Build(ctx context.Context, logOut io.Writer) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return Deps{}, err
	}
	log := logger.NewWithWriter(logOut, cfg.LogLevel)

	client, err := BuildLLM(ctx, cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return Deps{
		Config:   cfg,
		Log:      log,
		LLM:      client,
		Patterns: patterns.New(client, log),
	}, nil
}

// BuildLLM selects the provider client once at startup.
func BuildLLM(ctx context.Context, cfg config.Config, log *slog.Logger) (llm.Client, error) {
	provider, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "PROVIDER", Reason: err.Error()}
	}
	if cfg.APIKey == "" {
		return nil, &config.ConfigurationError{Field: "API_KEY", Reason: "missing API_KEY environment variable"}
	}
	opts := llm.Options{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}
	switch provider {
	case llm.ProviderGoogle:
		client, err := llm.NewGeminiClient(ctx, opts, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		log.Info("using Google Gen AI client", "model", modelOr(cfg.Model, llm.DefaultGeminiModel))
		return client, nil
	default:
		client, err := llm.NewOpenAIClient(opts, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI client", "model", modelOr(cfg.Model, string(llm.DefaultOpenAIModel)))
		return client, nil
	}
}

func modelOr(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}
