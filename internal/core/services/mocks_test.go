package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// --- Mock implementations ---

const mockDims = 64

// mockEmbeddingService implements driven.EmbeddingService with a hashed
// bag-of-words vector, so texts sharing words are similar.
type mockEmbeddingService struct {
	embedErr error
	batchErr error
	// blockEmbed and blockBatch hold calls until ctx ends.
	blockEmbed bool
	blockBatch bool
	// failOn makes EmbedBatch fail for any batch containing this text.
	failOn string
	calls  atomic.Int32
}

func bagOfWords(text string) []float32 {
	v := make([]float32, mockDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:?!()")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%mockDims]++
	}
	return v
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.blockEmbed {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return bagOfWords(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.blockBatch {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		if m.failOn != "" && text == m.failOn {
			return nil, domain.ErrRateLimited
		}
		result[i] = bagOfWords(text)
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return mockDims
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
// reply computes the answer from the messages it receives.
type mockLLMService struct {
	mu       sync.Mutex
	reply    func(messages []driven.ChatMessage) (string, error)
	received [][]driven.ChatMessage
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: "user", Content: prompt}},
		driven.ChatOptions{MaxTokens: opts.MaxTokens})
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.received = append(m.received, messages)
	m.mu.Unlock()
	if m.reply == nil {
		return "", nil
	}
	return m.reply(messages)
}

func (m *mockLLMService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received)
}

func (m *mockLLMService) lastUserMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.received) == 0 {
		return ""
	}
	msgs := m.received[len(m.received)-1]
	return msgs[len(msgs)-1].Content
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockPromptStore implements driven.PromptStore from a fixed map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// --- Test helpers ---

func chunksOf(documentID string, texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	offset := 0
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:         chunkIDFor(documentID, i),
			DocumentID: documentID,
			Content:    text,
			Start:      offset,
			End:        offset + len(text),
			Position:   i,
		}
		offset += len(text)
	}
	return chunks
}

func chunkIDFor(documentID string, i int) string {
	return fmt.Sprintf("%s-c%d", documentID, i)
}
