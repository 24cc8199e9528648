package ai

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// Ensure the decorators implement the interfaces.
var (
	_ driven.EmbeddingService = (*resilientEmbedding)(nil)
	_ driven.LLMService       = (*resilientLLM)(nil)
)

// resilientEmbedding retries and throttles an embedding service.
type resilientEmbedding struct {
	driven.EmbeddingService
	retry *Retrier
}

// WithEmbeddingRetry wraps svc so Embed and EmbedBatch go through r.
// Ping and Close are not retried.
func WithEmbeddingRetry(svc driven.EmbeddingService, r *Retrier) driven.EmbeddingService {
	if svc == nil || r == nil {
		return svc
	}
	return &resilientEmbedding{EmbeddingService: svc, retry: r}
}

func (e *resilientEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := e.retry.Do(ctx, "embed", func(ctx context.Context) error {
		var err error
		out, err = e.EmbeddingService.Embed(ctx, text)
		return err
	})
	return out, err
}

func (e *resilientEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.retry.Do(ctx, "embed batch", func(ctx context.Context) error {
		var err error
		out, err = e.EmbeddingService.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// resilientLLM retries and throttles a language model.
type resilientLLM struct {
	driven.LLMService
	retry *Retrier
}

// WithLLMRetry wraps svc so Generate and Chat go through r.
func WithLLMRetry(svc driven.LLMService, r *Retrier) driven.LLMService {
	if svc == nil || r == nil {
		return svc
	}
	return &resilientLLM{LLMService: svc, retry: r}
}

func (l *resilientLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := l.retry.Do(ctx, "generate", func(ctx context.Context) error {
		var err error
		out, err = l.LLMService.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}

func (l *resilientLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var out string
	err := l.retry.Do(ctx, "chat", func(ctx context.Context) error {
		var err error
		out, err = l.LLMService.Chat(ctx, messages, opts)
		return err
	})
	return out, err
}
