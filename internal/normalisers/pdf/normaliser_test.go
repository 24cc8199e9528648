package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// fakePages is a test double for pageSource.
type fakePages struct {
	pages []string
	err   error
	panic bool
}

func (f *fakePages) NumPage() int {
	if f.panic {
		panic("malformed xref")
	}
	return len(f.pages)
}

func (f *fakePages) PageText(i int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.pages[i-1], nil
}

func withPages(src *fakePages) *Normaliser {
	return &Normaliser{open: func([]byte) (pageSource, error) { return src, nil }}
}

var header = []byte("%PDF-1.7\n")

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, domain.FormatPDF, normaliser.Format())
	assert.Equal(t, []string{"application/pdf"}, normaliser.SupportedMIMETypes())
}

func TestNormalise_PageMarkers(t *testing.T) {
	n := withPages(&fakePages{pages: []string{
		"Trade Date: 01/15/2024   Notional: USD 5m",
		"",
		"Payment Frequency: Quarterly",
	}})

	result, err := n.Normalise(context.Background(), &domain.RawDocument{Name: "ts.pdf", Content: header})
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "Trade Date: 01/15/2024 Notional: USD 5m\n\nPayment Frequency: Quarterly", doc.Content)
	require.Len(t, doc.Mappings, 2)
	assert.Equal(t, 1, doc.Mappings[0].Location.Page)
	assert.Equal(t, 3, doc.Mappings[1].Location.Page)

	loc, ok := doc.LocationAt(len(doc.Content) - 1)
	require.True(t, ok)
	assert.Equal(t, 3, loc.Page)
}

func TestNormalise_Errors(t *testing.T) {
	tests := []struct {
		name    string
		n       *Normaliser
		raw     *domain.RawDocument
		wantErr error
	}{
		{"nil document", New(), nil, domain.ErrInvalidInput},
		{"missing header", New(), &domain.RawDocument{Content: []byte("hello")}, domain.ErrCorruptedFile},
		{"truncated file", New(), &domain.RawDocument{Content: []byte("%PDF-1.4\n1 0 obj")}, domain.ErrCorruptedFile},
		{"page error", withPages(&fakePages{pages: []string{"x"}, err: errors.New("bad font")}), &domain.RawDocument{Content: header}, domain.ErrCorruptedFile},
		{"decoder panic", withPages(&fakePages{panic: true}), &domain.RawDocument{Content: header}, domain.ErrCorruptedFile},
		{"no text layer", withPages(&fakePages{pages: []string{"", "  "}}), &domain.RawDocument{Content: header}, domain.ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.n.Normalise(context.Background(), tt.raw)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
}
