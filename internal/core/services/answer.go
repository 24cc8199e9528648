package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/logger"
)

// Ensure AnswerGenerator accepts custom prompts.
var _ driven.PromptStoreAware = (*AnswerGenerator)(nil)

// InsufficientMarker is the reply the model is told to give when the
// supplied context does not address the question.
const InsufficientMarker = "INSUFFICIENT_CONTEXT"

// defaultAnswerSystemPrompt is the fallback when no PromptStore is configured.
// %s is the insufficient-context marker.
const defaultAnswerSystemPrompt = `You answer questions about a single financial document.
Use only the context blocks supplied by the user. Do not use outside knowledge.
After every statement, cite the blocks it relies on as [chunk:<id>] using the id shown in the block header.
If the context does not contain the answer, reply with exactly %s and nothing else.`

// defaultAnswerUserPrompt is the fallback when no PromptStore is configured.
// The placeholders are the context blocks and the question.
const defaultAnswerUserPrompt = `Context:
%s
Question: %s`

// DefaultPrompts returns the built-in answer templates keyed by prompt name,
// used to seed a file-backed PromptStore.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptAnswerSystem: defaultAnswerSystemPrompt,
		driven.PromptAnswerUser:   defaultAnswerUserPrompt,
	}
}

var citationPattern = regexp.MustCompile(`\[chunk:\s*([^\]\s]+)\s*\]`)

// AnswerGenerator turns retrieved chunks and a question into a grounded answer.
type AnswerGenerator struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	maxTokens   int
	timeout     time.Duration
}

// NewAnswerGenerator creates an answer generator.
func NewAnswerGenerator(llm driven.LLMService, cfg domain.LLMSettings) *AnswerGenerator {
	defaults := domain.DefaultAppSettings().LLM
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	return &AnswerGenerator{llm: llm, maxTokens: cfg.MaxTokens, timeout: cfg.Timeout}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (g *AnswerGenerator) SetPromptStore(store driven.PromptStore) {
	g.promptStore = store
}

// Available reports whether a language model is wired.
func (g *AnswerGenerator) Available() bool {
	return g.llm != nil
}

// Generate answers question from chunks. An empty context yields the
// insufficient answer without calling the model.
func (g *AnswerGenerator) Generate(
	ctx context.Context, chunks []domain.ScoredChunk, question string,
) (*domain.Answer, error) {
	logger.Section("Answer")
	if len(chunks) == 0 {
		logger.Debug("No context, answering insufficient")
		return domain.InsufficientAnswer(), nil
	}
	if g.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(g.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystemPrompt), InsufficientMarker)},
		{Role: "user", Content: fmt.Sprintf(g.loadPrompt(driven.PromptAnswerUser, defaultAnswerUserPrompt), contextBlocks(chunks), question)},
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	reply, err := g.llm.Chat(ctx, messages, driven.ChatOptions{MaxTokens: g.maxTokens})
	if err != nil {
		logger.Warn("Language model failed after %s: %v", time.Since(start), err)
		return nil, languageModelError(ctx, err)
	}
	logger.Debug("Language model replied in %s (%d bytes)", time.Since(start), len(reply))

	return parseAnswer(reply, chunks)
}

func (g *AnswerGenerator) loadPrompt(name, fallback string) string {
	if g.promptStore == nil {
		return fallback
	}
	prompt, err := g.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// contextBlocks renders chunks as headed blocks in rank order.
func contextBlocks(chunks []domain.ScoredChunk) string {
	var b strings.Builder
	for _, sc := range chunks {
		b.WriteString("[chunk:")
		b.WriteString(sc.Chunk.ID)
		b.WriteString("]")
		if sc.Chunk.Page > 0 {
			fmt.Fprintf(&b, " (page %d)", sc.Chunk.Page)
		}
		b.WriteString("\n")
		b.WriteString(sc.Chunk.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// parseAnswer extracts citations, keeping only chunks that were supplied.
func parseAnswer(reply string, chunks []domain.ScoredChunk) (*domain.Answer, error) {
	text := strings.TrimSpace(reply)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrLanguageModel)
	}
	if strings.Contains(text, InsufficientMarker) {
		return domain.InsufficientAnswer(), nil
	}

	supplied := make(map[string]bool, len(chunks))
	for _, sc := range chunks {
		supplied[sc.Chunk.ID] = true
	}

	cited := []string{}
	seen := make(map[string]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if !supplied[id] {
			logger.Debug("Ignoring citation of unsupplied chunk %s", id)
			continue
		}
		if !seen[id] {
			seen[id] = true
			cited = append(cited, id)
		}
	}

	return &domain.Answer{
		Text:              text,
		CitedChunkIDs:     cited,
		ConfidenceUnknown: len(cited) == 0,
	}, nil
}

// languageModelError keeps classified provider errors and maps deadlines
// to ErrLanguageModelTimeout. Anything else becomes ErrLanguageModel.
func languageModelError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrLanguageModelTimeout),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrMalformedRequest),
		errors.Is(err, domain.ErrAuthInvalid),
		errors.Is(err, domain.ErrLanguageModel):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrLanguageModelTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrLanguageModel, err)
	}
}
