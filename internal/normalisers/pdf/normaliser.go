// Package pdf decodes PDF uploads page by page.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/logger"
	"github.com/custodia-labs/findoc/internal/normalisers/layout"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var magic = []byte("%PDF-")

// pageSource yields the plain text of each page.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type openFunc func(content []byte) (pageSource, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	open openFunc
}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{open: openReader}
}

// Format returns the format this normaliser decodes.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatPDF
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Normalise extracts text page by page, recording where each page starts.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (result *driven.NormaliseResult, err error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !bytes.HasPrefix(bytes.TrimLeft(raw.Content, "\x00\t\r\n "), magic) {
		return nil, fmt.Errorf("%w: missing PDF header", domain.ErrCorruptedFile)
	}

	// The decoder panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", domain.ErrCorruptedFile, r)
		}
	}()

	src, err := n.open(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
	}

	var b layout.Builder
	pages := src.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := src.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrCorruptedFile, i, err)
		}
		if !b.Add(text, domain.Location{Page: i}) {
			logger.Debug("pdf: page %d of %q has no text layer", i, raw.Name)
		}
	}

	doc, err := b.Build(raw, domain.FormatPDF)
	if err != nil {
		return nil, err
	}
	return &driven.NormaliseResult{Document: *doc}, nil
}

// reader adapts a ledongthuc/pdf reader to pageSource.
type reader struct {
	r *pdf.Reader
}

func openReader(content []byte) (pageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	return &reader{r: r}, nil
}

func (p *reader) NumPage() int {
	return p.r.NumPage()
}

func (p *reader) PageText(i int) (string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
