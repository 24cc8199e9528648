// Package vector provides the vector index adapter backed by chromem-go.
// Each document gets its own collection, so searches are naturally scoped
// to one document and deleting a document drops its vectors in one call.
package vector

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const positionKey = "position"

// errNoEmbedder is returned if chromem ever tries to embed text itself.
// Every document and query carries a precomputed vector.
var errNoEmbedder = errors.New("vector: embeddings must be precomputed")

func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errNoEmbedder
}

// Index is a chromem-go backed vector index.
type Index struct {
	mu sync.RWMutex
	db *chromem.DB
}

// New creates an in-memory index.
func New() *Index {
	return &Index{db: chromem.NewDB()}
}

// NewPersistent creates an index persisted under path.
func NewPersistent(path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("vector: path cannot be empty")
	}
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("vector: open %s: %w", path, err)
	}
	return &Index{db: db}, nil
}

// Add inserts vectors into the partition.
func (i *Index) Add(ctx context.Context, partition string, entries []driven.VectorEntry) error {
	if partition == "" {
		return fmt.Errorf("vector: %w: empty partition", domain.ErrInvalidInput)
	}
	if len(entries) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(entries))
	for n, e := range entries {
		if e.ChunkID == "" || len(e.Embedding) == 0 {
			return fmt.Errorf("vector: %w: entry %d has no id or vector", domain.ErrInvalidInput, n)
		}
		docs[n] = chromem.Document{
			ID:        e.ChunkID,
			Content:   e.ChunkID,
			Metadata:  map[string]string{positionKey: strconv.Itoa(e.Position)},
			Embedding: e.Embedding,
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	c, err := i.db.GetOrCreateCollection(partition, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("vector: collection %s: %w", partition, err)
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("vector: add to %s: %w", partition, err)
	}
	return nil
}

// Search ranks the partition's vectors against query.
func (i *Index) Search(ctx context.Context, partition string, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("vector: %w: empty query vector", domain.ErrInvalidInput)
	}

	i.mu.RLock()
	c := i.db.GetCollection(partition, noEmbedding)
	i.mu.RUnlock()
	if c == nil {
		return nil, fmt.Errorf("vector: partition %s: %w", partition, domain.ErrNotFound)
	}

	n := c.Count()
	if n == 0 {
		return nil, nil
	}

	// All results are fetched so that ties at the cut-off are broken by
	// position rather than by chromem's internal order.
	results, err := c.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector: query %s: %w", partition, err)
	}

	hits := make([]driven.VectorHit, len(results))
	for j, r := range results {
		pos, _ := strconv.Atoi(r.Metadata[positionKey])
		hits[j] = driven.VectorHit{ChunkID: r.ID, Position: pos, Similarity: float64(r.Similarity)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].Position < hits[b].Position
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeletePartition removes a partition. Missing partitions are ignored.
func (i *Index) DeletePartition(_ context.Context, partition string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.db.DeleteCollection(partition); err != nil {
		return fmt.Errorf("vector: delete %s: %w", partition, err)
	}
	return nil
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}
