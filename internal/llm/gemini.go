package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls the Gemini Developer API (not Vertex AI).
type GeminiClient struct {
	model  string
	opts   Options
	client *genai.Client
	log    *slog.Logger
}

// NewGeminiClient builds a client against the Gemini Developer API, or opts.BaseURL when set.
func NewGeminiClient(ctx context.Context, opts Options, log *slog.Logger) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = opts.BaseURL
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{
		model:  model,
		opts:   opts,
		client: cli,
		log:    orDiscard(log),
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fail(slog.Default(), ProviderGoogle, "", "", errors.New("nil gemini client"))
	}
	callID := uuid.NewString()
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.timeout())
	defer cancel()

	c.log.Debug("gemini request", "model", c.model, "call_id", callID, "prompt_len", len(prompt))
	resp, err := c.client.Models.GenerateContent(reqCtx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fail(c.log, ProviderGoogle, c.model, callID, err)
	}
	if len(resp.Candidates) == 0 {
		reason := "gemini: no candidates returned"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = fmt.Sprintf("gemini: prompt blocked (%s)", resp.PromptFeedback.BlockReason)
		}
		return "", fail(c.log, ProviderGoogle, c.model, callID, errors.New(reason))
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fail(c.log, ProviderGoogle, c.model, callID,
			fmt.Errorf("gemini: empty reply (finish_reason %s)", resp.Candidates[0].FinishReason))
	}
	c.log.Debug("gemini response", "model", c.model, "call_id", callID, "text_len", len(text))
	return text, nil
}
