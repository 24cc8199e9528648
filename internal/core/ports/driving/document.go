package driving

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// DocumentService ingests documents and exposes what was extracted.
type DocumentService interface {
	// Upload loads, extracts, chunks and indexes one document.
	// Index failures do not fail the upload; the result reports Indexed=false.
	Upload(ctx context.Context, raw *domain.RawDocument) (*domain.UploadResult, error)

	// UploadMany ingests documents concurrently. Results and errors are
	// index-aligned with the input.
	UploadMany(ctx context.Context, raws []*domain.RawDocument) ([]*domain.UploadResult, []error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Entities returns the entities extracted from a document.
	Entities(ctx context.Context, documentID string) ([]domain.ExtractedEntity, error)

	// List returns all loaded documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Discard drops a document with its chunks, vectors and sessions.
	Discard(ctx context.Context, documentID string) error
}
