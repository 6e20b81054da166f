package patterns

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prompt-patterns/internal/calc"
	"prompt-patterns/internal/llm"
	"prompt-patterns/internal/prompt"
)

func TestFewShot(t *testing.T) {
	m := new(llm.MockClient)
	m.On("Generate", mock.Anything, "Q: Y?\nA: Z\nQ: X?\nA:").Return("W", nil).Once()

	res, err := New(m, nil).FewShot(context.Background(), "X?", []prompt.Example{{Question: "Y?", Answer: "Z"}})

	require.NoError(t, err)
	assert.Equal(t, "W", res.Text)
	assert.Equal(t, "Q: Y?\nA: Z\nQ: X?\nA:", res.Prompt)
	m.AssertExpectations(t)
}

func TestRAG(t *testing.T) {
	m := new(llm.MockClient)
	m.On("Generate", mock.Anything, "Context: C\nQuestion: Q\nAnswer:").Return("A", nil).Once()

	res, err := New(m, nil).RAG(context.Background(), "C", "Q")

	require.NoError(t, err)
	assert.Equal(t, "A", res.Text)
	m.AssertExpectations(t)
}

func TestStructuredJSON(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantFailed bool
		wantAnswer string
	}{
		{"fenced json", "```json\n{\"answer\": \"Alexander Fleming\"}\n```", false, "Alexander Fleming"},
		{"bare json", `{"answer": "Alexander Fleming"}`, false, "Alexander Fleming"},
		{"free text", "Alexander Fleming discovered it.", true, ""},
		{"empty reply", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(llm.MockClient)
			m.On("Generate", mock.Anything, prompt.BuildStructuredJSON("Who discovered penicillin?")).
				Return(tt.reply, nil).Once()

			res, err := New(m, nil).StructuredJSON(context.Background(), "Who discovered penicillin?")

			require.NoError(t, err)
			assert.Equal(t, tt.wantFailed, res.Answer.Failed())
			if tt.wantFailed {
				assert.Equal(t, tt.reply, res.Answer.RawResponse)
			} else {
				answer, ok := res.Answer.Answer()
				assert.True(t, ok)
				assert.Equal(t, tt.wantAnswer, answer)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestProviderErrorPropagatesUnchanged(t *testing.T) {
	perr := &llm.ProviderError{Provider: llm.ProviderOpenAI, Model: "gpt-3.5-turbo", Err: errors.New("quota")}
	m := new(llm.MockClient)
	m.On("Generate", mock.Anything, mock.Anything).Return("", perr)
	svc := New(m, nil)

	_, err := svc.FewShot(context.Background(), "X?", nil)
	assert.Same(t, perr, err)

	_, err = svc.RAG(context.Background(), "C", "Q")
	assert.Same(t, perr, err)

	res, err := svc.StructuredJSON(context.Background(), "Q")
	assert.Same(t, perr, err)
	assert.False(t, res.Answer.Failed())
}

func TestFunctionCall(t *testing.T) {
	svc := New(new(llm.MockClient), nil)

	got, err := svc.FunctionCall("multiply", 5, 3)
	require.NoError(t, err)
	assert.Equal(t, float64(15), got)

	_, err = svc.FunctionCall("divide", 5, 3)
	var uerr *calc.UnknownOperationError
	assert.True(t, errors.As(err, &uerr))
}
