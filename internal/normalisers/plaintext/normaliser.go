package plaintext

import (
	"bytes"
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/normalisers/layout"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format this normaliser decodes.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatText
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
	}
}

// Normalise converts plain text into a document with one mapping per paragraph.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if bytes.IndexByte(raw.Content, 0) >= 0 {
		return nil, domain.ErrCorruptedFile
	}

	var b layout.Builder
	for i, para := range layout.Paragraphs(layout.Whitespace(string(raw.Content))) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.Add(para, domain.Location{Paragraph: i + 1})
	}

	doc, err := b.Build(raw, domain.FormatText)
	if err != nil {
		return nil, err
	}
	return &driven.NormaliseResult{Document: *doc}, nil
}
