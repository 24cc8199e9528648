package normalisers

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

func zipWith(t *testing.T, names ...string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, name := range names {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte("<x/>"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    domain.Format
	}{
		{"pdf", []byte("%PDF-1.7\n..."), domain.FormatPDF},
		{"docx", zipWith(t, "[Content_Types].xml", "word/document.xml"), domain.FormatDOCX},
		{"xlsx", zipWith(t, "xl/workbook.xml"), domain.FormatXLSX},
		{"other zip", zipWith(t, "readme.txt"), domain.FormatUnset},
		{"utf8 text", []byte("Notional: EUR 25 million"), domain.FormatText},
		{"binary", []byte{0x89, 'P', 'N', 'G', 0x00}, domain.FormatUnset},
		{"empty", nil, domain.FormatUnset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.content))
		})
	}
}

func TestRegistry_Detect(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name    string
		raw     *domain.RawDocument
		want    domain.Format
		wantErr error
	}{
		{"declared format wins", &domain.RawDocument{Format: domain.FormatPDF, Name: "a.txt"}, domain.FormatPDF, nil},
		{"invalid declared format", &domain.RawDocument{Format: "rtf"}, domain.FormatUnset, domain.ErrUnsupportedFormat},
		{"mime with params", &domain.RawDocument{MIMEType: "text/plain; charset=utf-8"}, domain.FormatText, nil},
		{"extension", &domain.RawDocument{Name: "Confirm.DOCX"}, domain.FormatDOCX, nil},
		{"markdown extension", &domain.RawDocument{Name: "termsheet.md"}, domain.FormatMarkdown, nil},
		{"markdown mime", &domain.RawDocument{MIMEType: "text/markdown"}, domain.FormatMarkdown, nil},
		{"sniffed", &domain.RawDocument{Name: "upload.bin", Content: []byte("%PDF-1.4")}, domain.FormatPDF, nil},
		{"unsupported", &domain.RawDocument{Name: "image.png", Content: []byte{0x89, 0x00}}, domain.FormatUnset, domain.ErrUnsupportedFormat},
		{"nil", nil, domain.FormatUnset, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Detect(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_Normalise(t *testing.T) {
	r := NewDefaultRegistry()

	result, err := r.Normalise(context.Background(), &domain.RawDocument{
		Name:    "note.txt",
		Content: []byte("The bond ISIN US0378331005 matures in 2030."),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FormatText, result.Document.Format)
	assert.Equal(t, "The bond ISIN US0378331005 matures in 2030.", result.Document.Content)
}

func TestRegistry_NormaliseCorrupted(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{Name: "fake.pdf", Content: []byte("not a pdf")})
	assert.ErrorIs(t, err, domain.ErrCorruptedFile)
}

func TestRegistry_MissingNormaliser(t *testing.T) {
	r := NewRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{Format: domain.FormatPDF})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Empty(t, r.SupportedMIMETypes())
}

func TestExtensions(t *testing.T) {
	exts := Extensions()
	assert.Contains(t, exts, ".pdf")
	assert.Contains(t, exts, ".docx")
	assert.Contains(t, exts, ".xlsx")
	assert.IsIncreasing(t, exts)
}

func TestRegistry_NormaliseMarkdown(t *testing.T) {
	r := NewDefaultRegistry()

	result, err := r.Normalise(context.Background(), &domain.RawDocument{
		Name:    "termsheet.md",
		Content: []byte("# Economics\n\n**Notional Amount:** USD 10,000,000"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FormatMarkdown, result.Document.Format)
	assert.Equal(t, "Economics\n\nNotional Amount: USD 10,000,000", result.Document.Content)
	assert.Contains(t, Extensions(), ".md")
}
