package driven

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for an upload.
// Selection uses the declared format, then the MIME type, then the file
// extension, then the leading bytes.
type NormaliserRegistry interface {
	// Normalise decodes a raw document with the matching normaliser.
	// Returns domain.ErrUnsupportedFormat when no normaliser matches.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// Detect resolves the format an upload would be decoded as.
	Detect(raw *domain.RawDocument) (domain.Format, error)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
