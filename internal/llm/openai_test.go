package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClientValidation(t *testing.T) {
	_, err := NewOpenAIClient(Options{}, nil)
	assert.Error(t, err)
}

func TestOpenAIGenerateSuccess(t *testing.T) {
	var captured struct {
		Path          string
		Authorization string
		Body          map[string]any
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Authorization = r.Header.Get("Authorization")
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&captured.Body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": "  Mount Everest\n",
					},
				},
			},
		})
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(Options{APIKey: "test", BaseURL: srv.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), "Q: What is the tallest mountain on Earth?\nA:")
	require.NoError(t, err)

	assert.Equal(t, "Mount Everest", text)
	assert.Equal(t, "/chat/completions", captured.Path)
	assert.Equal(t, "Bearer test", captured.Authorization)
	assert.Equal(t, string(DefaultOpenAIModel), captured.Body["model"])

	messages, ok := captured.Body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "Q: What is the tallest mountain on Earth?\nA:", msg["content"])
}

func TestOpenAIGenerateHTTPError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(Options{APIKey: "bad", Model: "gpt-4o-mini", BaseURL: srv.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hello")
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderOpenAI, perr.Provider)
	assert.Equal(t, "gpt-4o-mini", perr.Model)
	assert.Equal(t, 1, calls, "a failed call must not be retried")
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":0,"model":"gpt-3.5-turbo","choices":[]}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(Options{APIKey: "test", BaseURL: srv.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hello")
	var perr *ProviderError
	assert.True(t, errors.As(err, &perr))
}

func TestOpenAIGenerateEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":0,"model":"gpt-3.5-turbo",
			"choices":[{"index":0,"finish_reason":"content_filter","message":{"role":"assistant","content":null,"refusal":"no"}}]}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(Options{APIKey: "test", BaseURL: srv.URL, Timeout: time.Second}, nil)
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), "hello")
	assert.Empty(t, text)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, err.Error(), "content_filter")
	assert.Contains(t, err.Error(), "refused: no")
}

func TestOpenAIGenerateTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(Options{APIKey: "test", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hello")

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), err.Error())
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIGenerateNilClient(t *testing.T) {
	var client *OpenAIClient
	_, err := client.Generate(context.Background(), "hello")

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderOpenAI, perr.Provider)
}
