package xlsx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

func createTestXLSX(t *testing.T, rows map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for sheet, data := range rows {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", sheet))
			first = false
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for i, row := range data {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	normaliser := New()
	assert.Equal(t, domain.FormatXLSX, normaliser.Format())
	assert.Equal(t, []string{domain.FormatXLSX.MIMEType()}, normaliser.SupportedMIMETypes())
}

func TestNormalise_Rows(t *testing.T) {
	content := createTestXLSX(t, map[string][][]any{
		"Trades": {
			{"ISIN", "Notional", "Frequency"},
			{"US0378331005", "USD 10,000,000", "Quarterly"},
		},
	})

	result, err := New().Normalise(context.Background(), &domain.RawDocument{Name: "book.xlsx", Content: content})
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "ISIN | Notional | Frequency\n\nUS0378331005 | USD 10,000,000 | Quarterly", doc.Content)
	require.Len(t, doc.Mappings, 2)
	assert.Equal(t, domain.Location{Sheet: "Trades", Row: 2}, doc.Mappings[1].Location)
}

func TestNormalise_Errors(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Normalise(context.Background(), &domain.RawDocument{Content: []byte("not a workbook")})
	assert.ErrorIs(t, err, domain.ErrCorruptedFile)

	empty := createTestXLSX(t, map[string][][]any{"Empty": {}})
	_, err = New().Normalise(context.Background(), &domain.RawDocument{Content: empty})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
}
