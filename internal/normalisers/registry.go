package normalisers

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// sniffLimit bounds how much content is inspected for binary bytes.
const sniffLimit = 8 << 10

var extensions = map[string]domain.Format{
	".pdf":      domain.FormatPDF,
	".docx":     domain.FormatDOCX,
	".xlsx":     domain.FormatXLSX,
	".txt":      domain.FormatText,
	".text":     domain.FormatText,
	".csv":      domain.FormatText,
	".md":       domain.FormatMarkdown,
	".markdown": domain.FormatMarkdown,
}

// Extensions returns the file extensions whose format is known, sorted.
func Extensions() []string {
	out := make([]string, 0, len(extensions))
	for ext := range extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Registry maps formats and MIME types to normalisers.
type Registry struct {
	mu       sync.RWMutex
	byFormat map[domain.Format]driven.Normaliser
	byMIME   map[string]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byFormat: make(map[domain.Format]driven.Normaliser),
		byMIME:   make(map[string]driven.Normaliser),
	}
}

// Register adds a normaliser, replacing any previous one for its format.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byFormat[n.Format()] = n
	for _, m := range n.SupportedMIMETypes() {
		r.byMIME[m] = n
	}
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byMIME))
	for m := range r.byMIME {
		out = append(out, m)
	}
	return out
}

// Detect resolves the format from the declared format, MIME type, file
// extension and finally the leading bytes.
func (r *Registry) Detect(raw *domain.RawDocument) (domain.Format, error) {
	if raw == nil {
		return domain.FormatUnset, domain.ErrInvalidInput
	}
	if raw.Format != domain.FormatUnset {
		if !raw.Format.IsValid() {
			return domain.FormatUnset, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, raw.Format)
		}
		return raw.Format, nil
	}

	if raw.MIMEType != "" {
		if mt, _, err := mime.ParseMediaType(raw.MIMEType); err == nil {
			r.mu.RLock()
			n, ok := r.byMIME[mt]
			r.mu.RUnlock()
			if ok {
				return n.Format(), nil
			}
		}
	}

	if f, ok := extensions[strings.ToLower(filepath.Ext(raw.Name))]; ok {
		return f, nil
	}

	if f := Sniff(raw.Content); f != domain.FormatUnset {
		return f, nil
	}
	return domain.FormatUnset, domain.ErrUnsupportedFormat
}

// Normalise decodes a raw document with the normaliser for its format.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	format, err := r.Detect(raw)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	n, ok := r.byFormat[format]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no normaliser for %s", domain.ErrUnsupportedFormat, format)
	}

	logger.Debug("normalise %q as %s (%d bytes)", raw.Name, format, len(raw.Content))
	return n.Normalise(ctx, raw)
}

// Sniff guesses a format from leading bytes. Returns FormatUnset when the
// content matches nothing the loader supports.
func Sniff(content []byte) domain.Format {
	if len(content) == 0 {
		return domain.FormatUnset
	}
	if bytes.HasPrefix(bytes.TrimLeft(content, "\x00\t\r\n "), []byte("%PDF-")) {
		return domain.FormatPDF
	}
	if bytes.HasPrefix(content, []byte("PK\x03\x04")) {
		return sniffZip(content)
	}

	head := content[:min(len(content), sniffLimit)]
	if bytes.IndexByte(head, 0) >= 0 {
		return domain.FormatUnset
	}
	if utf8.Valid(trimPartialRune(head)) {
		return domain.FormatText
	}
	return domain.FormatUnset
}

// sniffZip tells DOCX and XLSX apart by their main part.
func sniffZip(content []byte) domain.Format {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return domain.FormatUnset
	}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			return domain.FormatDOCX
		case "xl/workbook.xml":
			return domain.FormatXLSX
		}
	}
	return domain.FormatUnset
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off by the sniff limit.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}
