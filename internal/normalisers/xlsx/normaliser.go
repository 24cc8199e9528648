// Package xlsx decodes spreadsheet uploads sheet by sheet, one row per paragraph.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/normalisers/layout"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const cellSep = " | "

// Normaliser handles XLSX workbooks.
type Normaliser struct{}

// New creates a new XLSX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format this normaliser decodes.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatXLSX
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
}

// Normalise converts each non-empty row into a segment mapped to its sheet and row.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
	}
	defer f.Close()

	var b layout.Builder
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", domain.ErrCorruptedFile, sheet, err)
		}
		for i, row := range rows {
			b.Add(joinCells(row), domain.Location{Sheet: sheet, Row: i + 1})
		}
	}

	doc, err := b.Build(raw, domain.FormatXLSX)
	if err != nil {
		return nil, err
	}
	return &driven.NormaliseResult{Document: *doc}, nil
}

func joinCells(row []string) string {
	cells := make([]string, 0, len(row))
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return strings.Join(cells, cellSep)
}
