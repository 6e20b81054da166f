package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Client is the single generation capability both vendor SDKs are wrapped behind.
type Client interface {
	// Generate sends prompt to the provider in one round trip and returns the
	// trimmed completion text. Failures are returned as *ProviderError.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider enumerates the supported vendors.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderOpenAI Provider = "openai"
)

// ParseProvider maps a selector such as "Google" to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGoogle, ProviderOpenAI:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", s)
	}
}

// Options configures a vendor client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string        // overrides the vendor endpoint, mostly for tests
	Timeout time.Duration // per-call deadline applied inside Generate
}

const defaultTimeout = 30 * time.Second

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return defaultTimeout
	}
	return o.Timeout
}

// ProviderError wraps a failed generation call.
type ProviderError struct {
	Provider Provider
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// fail logs a failed call and returns it as a *ProviderError.
func fail(log *slog.Logger, provider Provider, model, callID string, err error) error {
	log.Error("generation failed", "provider", provider, "model", model, "call_id", callID, "err", err)
	return &ProviderError{Provider: provider, Model: model, Err: err}
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return log
}
