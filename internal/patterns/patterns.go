// Package patterns runs the prompting patterns against an injected LLM client.
package patterns

import (
	"context"
	"log/slog"

	"prompt-patterns/internal/calc"
	"prompt-patterns/internal/llm"
	"prompt-patterns/internal/normalize"
	"prompt-patterns/internal/prompt"
)

// Service holds no per-call state and is safe for concurrent use.
type Service struct {
	llm llm.Client
	log *slog.Logger
}

// New wires a Service to the provider selected at startup.
func New(client llm.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{llm: client, log: log}
}

// Result pairs the prompt that was sent with the provider's reply.
type Result struct {
	Prompt string
	Text   string
}

// FewShot completes query after the given example pairs.
func (s *Service) FewShot(ctx context.Context, query string, examples []prompt.Example) (Result, error) {
	return s.generate(ctx, "few_shot", prompt.BuildFewShot(query, examples))
}

// RAG answers question using only the supplied context.
func (s *Service) RAG(ctx context.Context, contextText, question string) (Result, error) {
	return s.generate(ctx, "rag", prompt.BuildRAG(contextText, question))
}

// StructuredResult is the outcome of StructuredJSON.
type StructuredResult struct {
	Prompt string
	Answer normalize.StructuredAnswer
}

// StructuredJSON asks for a JSON answer and normalizes the reply. A reply that
// is not JSON is returned as a failed StructuredAnswer, not as an error.
func (s *Service) StructuredJSON(ctx context.Context, query string) (StructuredResult, error) {
	res, err := s.generate(ctx, "structured_json", prompt.BuildStructuredJSON(query))
	if err != nil {
		return StructuredResult{Prompt: res.Prompt}, err
	}
	return StructuredResult{Prompt: res.Prompt, Answer: normalize.Parse(s.log, res.Text)}, nil
}

// FunctionCall dispatches to the calculator table.
func (s *Service) FunctionCall(name string, operands ...float64) (float64, error) {
	return calc.Call(name, operands...)
}

func (s *Service) generate(ctx context.Context, pattern, p string) (Result, error) {
	text, err := s.llm.Generate(ctx, p)
	if err != nil {
		s.log.Warn("pattern failed", "pattern", pattern, "err", err)
		return Result{Prompt: p}, err
	}
	s.log.Debug("pattern completed", "pattern", pattern, "text_len", len(text))
	return Result{Prompt: p, Text: text}, nil
}
