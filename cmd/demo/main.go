package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"prompt-patterns/internal/app"
	"prompt-patterns/internal/normalize"
	"prompt-patterns/internal/patterns"
	"prompt-patterns/internal/prompt"
)

var demoExamples = []prompt.Example{
	{Question: "What is the capital of France?", Answer: "Paris"},
	{Question: "Who wrote Hamlet?", Answer: "William Shakespeare"},
}

const (
	fewShotQuery    = "What is the tallest mountain on Earth?"
	structuredQuery = "Who discovered penicillin?"
	ragContext      = "Albert Einstein developed the theory of relativity, E=mc^2."
	ragQuestion     = "What is Einstein famous for?"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, os.Stderr)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	if err := run(ctx, deps.Patterns, os.Stdout); err != nil {
		deps.Log.Error("demo failed", "err", err)
		os.Exit(1)
	}
}

// run issues the three provider calls concurrently, then prints the results
// in a fixed order. Output stops at the first failed call, so the results
// before it are still printed.
func run(ctx context.Context, svc *patterns.Service, out io.Writer) error {
	var (
		fewShot    patterns.Result
		structured patterns.StructuredResult
		rag        patterns.Result

		fewShotErr, structuredErr, ragErr error
	)

	// No shared cancellation: one failure must not abort the other calls.
	var g errgroup.Group
	g.Go(func() error {
		fewShot, fewShotErr = svc.FewShot(ctx, fewShotQuery, demoExamples)
		return nil
	})
	g.Go(func() error {
		structured, structuredErr = svc.StructuredJSON(ctx, structuredQuery)
		return nil
	})
	g.Go(func() error {
		rag, ragErr = svc.RAG(ctx, ragContext, ragQuestion)
		return nil
	})
	_ = g.Wait()

	if fewShotErr != nil {
		return fewShotErr
	}
	fmt.Fprintf(out, "Few-shot Prompting:\n %s\n", fewShot.Text)

	if structuredErr != nil {
		return structuredErr
	}
	structuredText, err := formatStructured(structured.Answer)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nStructured JSON Response:\n %s\n", structuredText)

	if ragErr != nil {
		return ragErr
	}
	fmt.Fprintf(out, "\nRetrieval-Augmented Generation:\n %s\n", rag.Text)

	product, err := svc.FunctionCall("multiply", 5, 3)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nFunction Calling (multiply 5 x 3):\n %g\n", product)
	return nil
}

func formatStructured(answer normalize.StructuredAnswer) (string, error) {
	b, err := json.Marshal(answer)
	if err != nil {
		return "", fmt.Errorf("encode structured answer: %w", err)
	}
	return string(b), nil
}
