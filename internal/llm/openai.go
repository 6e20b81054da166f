package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.ChatModelGPT3_5Turbo

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	model  openai.ChatModel
	opts   Options
	client *openai.Client
	log    *slog.Logger
}

// NewOpenAIClient builds a client against api.openai.com, or opts.BaseURL when set.
func NewOpenAIClient(opts Options, log *slog.Logger) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	model := openai.ChatModel(opts.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// A failed call surfaces to the caller as-is.
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	cli := openai.NewClient(reqOpts...)
	return &OpenAIClient{
		model:  model,
		opts:   opts,
		client: &cli,
		log:    orDiscard(log),
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fail(slog.Default(), ProviderOpenAI, "", "", errors.New("nil openai client"))
	}
	callID := uuid.NewString()
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.timeout())
	defer cancel()

	c.log.Debug("openai request", "model", c.model, "call_id", callID, "prompt_len", len(prompt))
	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fail(c.log, ProviderOpenAI, string(c.model), callID, err)
	}
	if len(resp.Choices) == 0 {
		return "", fail(c.log, ProviderOpenAI, string(c.model), callID, errors.New("openai: no choices returned"))
	}
	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		reason := fmt.Sprintf("openai: empty reply (finish_reason %s)", choice.FinishReason)
		if choice.Message.Refusal != "" {
			reason += ": refused: " + choice.Message.Refusal
		}
		return "", fail(c.log, ProviderOpenAI, string(c.model), callID, errors.New(reason))
	}
	c.log.Debug("openai response", "model", c.model, "call_id", callID, "text_len", len(text))
	return text, nil
}
