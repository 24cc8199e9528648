package driven

import "context"

// VectorIndex stores embeddings in per-document partitions and ranks them
// by cosine similarity. A search never sees vectors of another partition.
type VectorIndex interface {
	// Add inserts vectors into the partition, creating it if needed.
	Add(ctx context.Context, partition string, entries []VectorEntry) error

	// Search returns up to k hits from the partition, ordered by similarity
	// descending and then by chunk position ascending.
	Search(ctx context.Context, partition string, query []float32, k int) ([]VectorHit, error)

	// DeletePartition removes a partition and all its vectors.
	DeletePartition(ctx context.Context, partition string) error

	// Close releases resources.
	Close() error
}

// VectorEntry is a chunk vector to index.
type VectorEntry struct {
	// ChunkID identifies the chunk.
	ChunkID string

	// Position is the chunk's ordinal position, used to break ties.
	Position int

	// Embedding is the chunk vector.
	Embedding []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Position is the matched chunk's ordinal position.
	Position int

	// Similarity is the cosine similarity score.
	Similarity float64
}
