package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"prompt-patterns/internal/app"
	"prompt-patterns/internal/calc"
	"prompt-patterns/internal/document"
	"prompt-patterns/internal/httputil"
	"prompt-patterns/internal/llm"
	"prompt-patterns/internal/normalize"
	"prompt-patterns/internal/prompt"
)

type fewShotRequest struct {
	Query    string           `json:"query" validate:"required,max=2000"`
	Examples []prompt.Example `json:"examples" validate:"max=50,dive"`
}

type structuredRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

type ragRequest struct {
	Context  string `json:"context" validate:"required"`
	Question string `json:"question" validate:"required,max=2000"`
}

type functionRequest struct {
	Operands []float64 `json:"operands" validate:"required"`
}

type textResponse struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

type structuredResponse struct {
	Prompt string                     `json:"prompt"`
	Answer string                     `json:"answer,omitempty"`
	Result normalize.StructuredAnswer `json:"result"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, os.Stdout)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			deps.Log.Error("shutdown failed", "err", err)
		}
	}()

	deps.Log.Info("prompt server listening", "addr", srv.Addr, "provider", deps.Config.Provider)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		deps.Log.Error("server error", "err", err)
		os.Exit(1)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)

	r.Route("/api/prompts", func(r chi.Router) {
		r.Post("/few-shot", fewShotHandler(deps))
		r.Post("/structured", structuredHandler(deps))
		r.Post("/rag", ragHandler(deps))
		r.Post("/rag/upload", ragUploadHandler(deps))
	})
	r.Get("/api/functions", listFunctionsHandler())
	r.Post("/api/functions/{name}", functionHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	return r
}

// decode reads and validates a JSON body, writing the 400 itself on failure.
func decode(deps app.Deps, w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
		return false
	}
	if err := httputil.Validator.Struct(dst); err != nil {
		httputil.ValidationError(deps.Log, w, err)
		return false
	}
	return true
}

// generationFailed maps a provider failure to 502 and anything else to 500.
func generationFailed(deps app.Deps, w http.ResponseWriter, err error) {
	var perr *llm.ProviderError
	if errors.As(err, &perr) {
		httputil.Fail(deps.Log, w, "llm provider failed", err, http.StatusBadGateway)
		return
	}
	httputil.Fail(deps.Log, w, "llm failed", err, http.StatusInternalServerError)
}

func fewShotHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fewShotRequest
		if !decode(deps, w, r, &req) {
			return
		}
		res, err := deps.Patterns.FewShot(r.Context(), req.Query, req.Examples)
		if err != nil {
			generationFailed(deps, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, textResponse{Prompt: res.Prompt, Answer: res.Text})
	}
}

func structuredHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req structuredRequest
		if !decode(deps, w, r, &req) {
			return
		}
		res, err := deps.Patterns.StructuredJSON(r.Context(), req.Query)
		if err != nil {
			generationFailed(deps, w, err)
			return
		}
		// A reply that is not JSON is still a 200; the result carries the error shape.
		answer, _ := res.Answer.Answer()
		httputil.WriteJSON(w, http.StatusOK, structuredResponse{Prompt: res.Prompt, Answer: answer, Result: res.Answer})
	}
}

func ragHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ragRequest
		if !decode(deps, w, r, &req) {
			return
		}
		res, err := deps.Patterns.RAG(r.Context(), req.Context, req.Question)
		if err != nil {
			generationFailed(deps, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, textResponse{Prompt: res.Prompt, Answer: res.Text})
	}
}

// ragUploadHandler takes the context from an uploaded TXT or PDF file.
func ragUploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize
	maxMemory := int64(32 << 20)
	if maxFileSize > 0 {
		maxMemory = maxFileSize
	}
	tooLarge := fmt.Sprintf("file too large (max %d bytes)", maxFileSize)

	return func(w http.ResponseWriter, r *http.Request) {
		if maxFileSize > 0 && r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, tooLarge, nil, http.StatusRequestEntityTooLarge)
			return
		}
		if maxFileSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxFileSize)
		}

		// Bodies of unknown length only hit the limit while parsing.
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				httputil.Fail(deps.Log, w, tooLarge, err, http.StatusRequestEntityTooLarge)
				return
			}
			httputil.Fail(deps.Log, w, "invalid multipart form: "+err.Error(), err, http.StatusBadRequest)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		question := r.FormValue("question")
		if question == "" {
			httputil.Fail(deps.Log, w, "question is required", nil, http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType, err := document.DetectType(header.Filename, header.Header.Get("Content-Type"))
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), nil, http.StatusBadRequest)
			return
		}
		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := document.ExtractText(contentType, content)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to extract text", err, http.StatusUnprocessableEntity)
			return
		}
		deps.Log.Info("rag context uploaded", "filename", header.Filename, "content_type", contentType, "chars", len(text))

		res, err := deps.Patterns.RAG(r.Context(), text, question)
		if err != nil {
			generationFailed(deps, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, textResponse{Prompt: res.Prompt, Answer: res.Text})
	}
}

func listFunctionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"functions": calc.Operations()})
	}
}

func functionHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !calc.Operation(name).Valid() {
			err := &calc.UnknownOperationError{Name: name}
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusNotFound)
			return
		}
		var req functionRequest
		if !decode(deps, w, r, &req) {
			return
		}
		result, err := deps.Patterns.FunctionCall(name, req.Operands...)
		var (
			unknown *calc.UnknownOperationError
			arity   *calc.ArityError
		)
		switch {
		case errors.As(err, &unknown):
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusNotFound)
			return
		case errors.As(err, &arity):
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		case err != nil:
			httputil.Fail(deps.Log, w, "function call failed", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"function": name, "result": result})
	}
}
