// Package locator annotates chunks with the page they start on.
package locator

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor sets Chunk.Page from the document's offset mappings.
type Processor struct{}

// New creates a locator processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "locator"
}

// Process annotates chunks in place. Documents without page mappings
// leave Page at zero.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		if loc, ok := doc.LocationAt(chunks[i].Start); ok {
			chunks[i].Page = loc.Page
		}
	}
	return chunks, nil
}
