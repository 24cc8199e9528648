package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/logger"
)

// IndexState is the lifecycle of one document's vector partition.
type IndexState int

// Index states. A partition absent from the index is IndexMissing.
const (
	IndexMissing IndexState = iota
	IndexBuilding
	IndexReady
	IndexFailed
)

// String returns the state name.
func (s IndexState) String() string {
	switch s {
	case IndexBuilding:
		return "building"
	case IndexReady:
		return "ready"
	case IndexFailed:
		return "failed"
	default:
		return "missing"
	}
}

// EmbeddingIndex embeds document chunks and answers nearest-neighbour
// queries inside one document's partition.
type EmbeddingIndex struct {
	embedder  driven.EmbeddingService
	vectors   driven.VectorIndex
	batchSize int
	workers   int
	timeout   time.Duration

	mu     sync.RWMutex
	states map[string]IndexState
}

// NewEmbeddingIndex creates an embedding index.
// Non-positive batch size, worker count or timeout fall back to the defaults.
func NewEmbeddingIndex(
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	cfg domain.EmbeddingSettings,
) *EmbeddingIndex {
	defaults := domain.DefaultAppSettings().Embedding
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	return &EmbeddingIndex{
		embedder:  embedder,
		vectors:   vectors,
		batchSize: cfg.BatchSize,
		workers:   cfg.Workers,
		timeout:   cfg.Timeout,
		states:    make(map[string]IndexState),
	}
}

// Available reports whether both an embedder and a vector index are wired.
func (x *EmbeddingIndex) Available() bool {
	return x.embedder != nil && x.vectors != nil
}

// State returns the partition state of a document.
func (x *EmbeddingIndex) State(documentID string) IndexState {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.states[documentID]
}

func (x *EmbeddingIndex) setState(documentID string, s IndexState) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.states[documentID] = s
}

// embedBatch is one unit of work for the embedding pool.
type embedBatch struct {
	offset int
	texts  []string
}

// Index embeds chunks and stores their vectors in the document's partition,
// replacing any previous partition. On failure the partition is dropped and
// the document is marked failed.
func (x *EmbeddingIndex) Index(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if !x.Available() {
		return domain.ErrEmbeddingUnavailable
	}
	if documentID == "" {
		return fmt.Errorf("index: %w: empty document id", domain.ErrInvalidInput)
	}

	logger.Section("Indexing")
	logger.Debug("Document %s: %d chunks, batch %d, %d workers", documentID, len(chunks), x.batchSize, x.workers)

	x.setState(documentID, IndexBuilding)
	if err := x.vectors.DeletePartition(ctx, documentID); err != nil {
		x.setState(documentID, IndexFailed)
		return fmt.Errorf("index: reset partition: %w", err)
	}

	embeddings, err := x.embedAll(ctx, chunks)
	if err == nil {
		err = x.store(ctx, documentID, chunks, embeddings)
	}
	if err != nil {
		x.setState(documentID, IndexFailed)
		if dropErr := x.vectors.DeletePartition(context.WithoutCancel(ctx), documentID); dropErr != nil {
			logger.Warn("Dropping partition %s after failure: %v", documentID, dropErr)
		}
		logger.Warn("Indexing %s failed: %v", documentID, err)
		return err
	}

	x.setState(documentID, IndexReady)
	logger.Debug("Document %s indexed", documentID)
	return nil
}

// embedAll runs EmbedBatch over a bounded worker pool. The first failure
// cancels the remaining batches. Vectors come back in chunk order.
func (x *EmbeddingIndex) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	if len(chunks) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan embedBatch)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := min(x.workers, (len(chunks)+x.batchSize-1)/x.batchSize)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				vecs, err := x.embedTexts(ctx, job.texts)
				if err != nil {
					fail(embeddingError(err))
					continue
				}
				if len(vecs) != len(job.texts) {
					fail(fmt.Errorf("%w: got %d vectors for %d texts",
						domain.ErrEmbeddingProvider, len(vecs), len(job.texts)))
					continue
				}
				for i, v := range vecs {
					if len(v) == 0 {
						fail(fmt.Errorf("%w: empty vector for chunk %d", domain.ErrEmbeddingProvider, job.offset+i))
						break
					}
					out[job.offset+i] = v
				}
			}
		}()
	}

send:
	for start := 0; start < len(chunks); start += x.batchSize {
		end := min(start+x.batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}
		select {
		case jobs <- embedBatch{offset: start, texts: texts}:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// embedTexts runs one batch call under the embedding timeout.
func (x *EmbeddingIndex) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	return x.embedder.EmbedBatch(ctx, texts)
}

func (x *EmbeddingIndex) store(ctx context.Context, documentID string, chunks []domain.Chunk, vecs [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	entries := make([]driven.VectorEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = driven.VectorEntry{ChunkID: c.ID, Position: c.Position, Embedding: vecs[i]}
	}
	if err := x.vectors.Add(ctx, documentID, entries); err != nil {
		return fmt.Errorf("index: store vectors: %w", err)
	}
	return nil
}

// Query embeds text and returns up to k hits from the document's partition.
// Returns domain.ErrIndexNotReady unless the partition finished building.
func (x *EmbeddingIndex) Query(ctx context.Context, documentID, text string, k int) ([]driven.VectorHit, error) {
	if !x.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if state := x.State(documentID); state != IndexReady {
		return nil, fmt.Errorf("%w: document %s is %s", domain.ErrIndexNotReady, documentID, state)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query: %w: empty text", domain.ErrInvalidInput)
	}

	embedCtx, cancel := context.WithTimeout(ctx, x.timeout)
	vec, err := x.embedder.Embed(embedCtx, text)
	cancel()
	if err != nil {
		return nil, embeddingError(err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrEmbeddingProvider)
	}

	hits, err := x.vectors.Search(ctx, documentID, vec, k)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: partition %s missing", domain.ErrIndexNotReady, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	logger.Debug("Query on %s: %d hits", documentID, len(hits))
	return hits, nil
}

// Drop removes the document's partition and forgets its state.
func (x *EmbeddingIndex) Drop(ctx context.Context, documentID string) error {
	x.mu.Lock()
	delete(x.states, documentID)
	x.mu.Unlock()
	if x.vectors == nil {
		return nil
	}
	return x.vectors.DeletePartition(ctx, documentID)
}

// embeddingError tags provider failures with ErrEmbeddingProvider while
// keeping the finer classification and context errors reachable. An
// expired deadline becomes ErrProviderTimeout.
func embeddingError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrProviderTimeout) {
		return fmt.Errorf("%w: %w", domain.ErrProviderTimeout, err)
	}
	if errors.Is(err, domain.ErrEmbeddingProvider) || errors.Is(err, domain.ErrProviderTimeout) ||
		errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
}
