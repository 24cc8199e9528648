package driven

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// Recogniser produces entity candidates from a document.
// Pattern and statistical recognisers both implement it; their candidates
// carry a domain.Strategy tag for reconciliation.
type Recogniser interface {
	// Name returns the recogniser name for logging.
	Name() string

	// Recognise returns candidates with spans inside doc.Content.
	// Finding nothing is not an error.
	Recognise(ctx context.Context, doc *domain.Document) ([]domain.Candidate, error)
}
