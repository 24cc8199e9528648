// Package ai builds the model provider adapters from settings: embedding
// services, language models and NER models, wrapped with retries.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/findoc/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/findoc/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/findoc/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/findoc/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/findoc/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/findoc/internal/adapters/driven/ner/huggingface"
	"github.com/custodia-labs/findoc/internal/adapters/driven/ner/lexicon"
	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult holds the providers available to this process. A nil
// service means the matching feature is disabled; Warnings say why.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	NERModel         driven.NERModel
	Warnings         []string
}

// Init creates every configured provider. Providers that fail to build or
// answer a ping are left out with a warning so extraction keeps working.
func Init(ctx context.Context, settings *domain.AppSettings) *InitResult {
	res := &InitResult{}
	retry := NewRetrier(settings.Provider)

	embed, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		res.warn("embedding disabled: %v", err)
	}
	res.EmbeddingService = WithEmbeddingRetry(embed, retry)

	llm, err := CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		res.warn("language model disabled: %v", err)
	}
	res.LLMService = WithLLMRetry(llm, retry)

	ner, err := CreateNERModel(&settings.NER)
	if err != nil {
		res.warn("statistical recogniser disabled: %v", err)
	}
	res.NERModel = ner

	return res
}

func (r *InitResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("%s", msg)
	r.Warnings = append(r.Warnings, msg)
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and pings it.
// An unconfigured provider yields (nil, nil).
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'findoc settings set embedding.provider' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and pings it.
// An unconfigured provider yields (nil, nil).
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'findoc settings set llm.provider' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(ctx, svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// ValidateEmbeddingConfig builds the configured embedding service and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc.Ping)
}

// ValidateLLMConfig builds the configured LLM service and pings it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc.Ping)
}

// CreateEmbeddingService creates the embedding service named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateNERModel creates the statistical tagging model named by settings.
// Returns nil for NERProviderNone.
func CreateNERModel(settings *domain.NERSettings) (driven.NERModel, error) {
	if settings == nil {
		return lexicon.NewNERModel(), nil
	}

	switch settings.Provider {
	case domain.NERProviderLexicon, "":
		return lexicon.NewNERModel(), nil

	case domain.NERProviderHuggingFace:
		return huggingface.NewNERModel(huggingface.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.NERProviderNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported NER provider: %s", settings.Provider)
	}
}
