package driven

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// DocumentStore holds loaded documents, their chunks and extracted
// entities for the lifetime of the process.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// SaveEntities replaces the extracted entities for a document.
	SaveEntities(ctx context.Context, documentID string, entities []domain.ExtractedEntity) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetEntities retrieves the extracted entities for a document.
	GetEntities(ctx context.Context, documentID string) ([]domain.ExtractedEntity, error)

	// DeleteDocument removes a document with its chunks and entities.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all held documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
