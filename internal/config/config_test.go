package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LOG_LEVEL", "PROVIDER", "API_KEY", "MODEL", "LLM_BASE_URL", "LLM_TIMEOUT", "PORT", "MAX_UPLOAD_SIZE"} {
		if original, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, original) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"LogLevel", cfg.LogLevel, "info"},
		{"Provider", cfg.Provider, "google"},
		{"Model", cfg.Model, ""},
		{"Timeout", cfg.Timeout, 30 * time.Second},
		{"Port", cfg.Port, 8080},
		{"MaxUploadSize", cfg.MaxUploadSize, int64(10485760)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROVIDER", " OpenAI ")
	t.Setenv("API_KEY", "sk-test")
	t.Setenv("MODEL", "gpt-4o-mini")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := Config{Provider: "google", APIKey: "key", Timeout: time.Second}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing api key",
			mutate:    func(c *Config) { c.APIKey = "" },
			wantField: "API_KEY",
			wantMsg:   "missing API_KEY environment variable",
		},
		{
			name:      "unsupported provider",
			mutate:    func(c *Config) { c.Provider = "anthropic" },
			wantField: "PROVIDER",
			wantMsg:   "unsupported provider: anthropic",
		},
		{
			name:      "invalid base url",
			mutate:    func(c *Config) { c.BaseURL = "not a url" },
			wantField: "LLM_BASE_URL",
		},
		{
			name:      "non-positive timeout",
			mutate:    func(c *Config) { c.Timeout = 0 },
			wantField: "LLM_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cerr *ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.wantField, cerr.Field)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, cerr.Error())
			}
		})
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})
}
