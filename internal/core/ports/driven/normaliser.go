package driven

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// Normaliser decodes the raw bytes of one format into a Document.
// The set of normalisers is closed: one per domain.Format.
type Normaliser interface {
	// Format returns the format this normaliser decodes.
	Format() domain.Format

	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise decodes raw bytes into a document with Content and Mappings set.
	// Returns domain.ErrCorruptedFile when the bytes cannot be decoded and
	// domain.ErrEmptyContent when no text remains after normalisation.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Note: Normalisation only produces a Document with Content.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Document is the normalised document with Content field populated.
	Document domain.Document
}
