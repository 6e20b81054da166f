package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime configuration for both binaries.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LLM provider
	Provider string        `env:"PROVIDER" envDefault:"google" validate:"oneof=google openai"` // "google" (Gemini Developer API) or "openai"
	APIKey   string        `env:"API_KEY" validate:"required"`
	Model    string        `env:"MODEL"` // empty selects the provider default
	BaseURL  string        `env:"LLM_BASE_URL" validate:"omitempty,url"`
	Timeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"30s" validate:"gt=0"`

	// Server
	Port          int   `env:"PORT" envDefault:"8080"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes
}

// ConfigurationError reports configuration the process must not start with.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their environment variable name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	return cfg
}

// Validate returns a *ConfigurationError for the first invalid field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigurationError{Reason: err.Error()}
	}
	fe := verrs[0]
	cerr := &ConfigurationError{Field: fe.Field()}
	switch {
	case fe.Tag() == "required":
		cerr.Reason = fmt.Sprintf("missing %s environment variable", fe.Field())
	case fe.Field() == "PROVIDER":
		cerr.Reason = fmt.Sprintf("unsupported provider: %v", fe.Value())
	default:
		cerr.Reason = fmt.Sprintf("invalid %s: %v", fe.Field(), fe.Value())
	}
	return cerr
}
