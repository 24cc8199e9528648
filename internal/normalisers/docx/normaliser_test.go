package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(documentXML, coreXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	if coreXML != "" {
		core, _ := w.Create("docProps/core.xml")
		core.Write([]byte(coreXML))
	}

	w.Close()
	return buf.Bytes()
}

const termSheetXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Indicative Term Sheet</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Notional Amount (N)</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>USD 10,000,000</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Payment Frequency</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Quarterly</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t xml:space="preserve">Party A:  </w:t></w:r><w:r><w:t>BANK ABC</w:t></w:r></w:p>
<w:p></w:p>
</w:body>
</w:document>`

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, domain.FormatDOCX, normaliser.Format())
	assert.Equal(t, []string{domain.FormatDOCX.MIMEType()}, normaliser.SupportedMIMETypes())
}

func TestNormalise_ParagraphsAndTables(t *testing.T) {
	raw := &domain.RawDocument{Name: "ts.docx", Content: createTestDOCX(termSheetXML, "")}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, domain.FormatDOCX, doc.Format)
	assert.Equal(t,
		"Indicative Term Sheet\n\nNotional Amount (N) | USD 10,000,000\n\nPayment Frequency | Quarterly\n\nParty A: BANK ABC",
		doc.Content)

	require.Len(t, doc.Mappings, 4)
	for i, m := range doc.Mappings {
		assert.Equal(t, i+1, m.Location.Paragraph)
	}
	loc, ok := doc.LocationAt(len(doc.Content) - 1)
	require.True(t, ok)
	assert.Equal(t, 4, loc.Paragraph)
}

func TestNormalise_TitleFallback(t *testing.T) {
	coreXML := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Swap Confirmation</dc:title>
</cp:coreProperties>`

	result, err := New().Normalise(context.Background(), &domain.RawDocument{Content: createTestDOCX(termSheetXML, coreXML)})
	require.NoError(t, err)
	assert.Equal(t, "Swap Confirmation", result.Document.Name)
}

func TestNormalise_Errors(t *testing.T) {
	emptyBody := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/></w:body></w:document>`

	tests := []struct {
		name    string
		raw     *domain.RawDocument
		wantErr error
	}{
		{"nil", nil, domain.ErrInvalidInput},
		{"not a zip", &domain.RawDocument{Content: []byte("plain text")}, domain.ErrCorruptedFile},
		{"missing document part", &domain.RawDocument{Content: createTestDOCX("", "")}, domain.ErrCorruptedFile},
		{"malformed xml", &domain.RawDocument{Content: createTestDOCX("<w:document><w:body>", "")}, domain.ErrCorruptedFile},
		{"no text", &domain.RawDocument{Content: createTestDOCX(emptyBody, "")}, domain.ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), tt.raw)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
}
