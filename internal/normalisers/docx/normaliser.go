package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/normalisers/layout"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
	cellSep      = " | "
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format this normaliser decodes.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatDOCX
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Normalise converts a DOCX document paragraph by paragraph. Table rows
// become one paragraph each with cells joined by " | ".
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive", domain.ErrCorruptedFile)
	}

	body, err := readPart(reader, documentPart)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrCorruptedFile, documentPart)
	}

	var b layout.Builder
	if err := walkBody(ctx, bytes.NewReader(body), &b); err != nil {
		return nil, err
	}

	doc, err := b.Build(raw, domain.FormatDOCX)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = extractTitle(reader)
	}
	return &driven.NormaliseResult{Document: *doc}, nil
}

// readPart returns the bytes of a zip member, or nil if absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
		}
		return content, nil
	}
	return nil, nil
}

// walkBody streams word/document.xml in document order so paragraphs and
// tables keep their relative position.
func walkBody(ctx context.Context, r io.Reader, b *layout.Builder) error {
	dec := xml.NewDecoder(r)

	var (
		para   strings.Builder
		cell   strings.Builder
		row    []string
		inText bool
		depth  int // table nesting
		count  int
	)

	write := func(s string) {
		if depth > 0 {
			cell.WriteString(s)
		} else {
			para.WriteString(s)
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
			case "tr":
				if depth == 1 {
					row = row[:0]
				}
			case "tc":
				if depth == 1 {
					cell.Reset()
				}
			case "t":
				inText = true
			case "tab":
				write(" ")
			case "br", "cr":
				write("\n")
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth > 0 {
					cell.WriteString(" ")
					continue
				}
				count++
				b.Add(para.String(), domain.Location{Paragraph: count})
				para.Reset()
				if err := ctx.Err(); err != nil {
					return err
				}
			case "tc":
				if depth == 1 {
					if text := strings.TrimSpace(cell.String()); text != "" {
						row = append(row, text)
					}
				}
			case "tr":
				if depth == 1 {
					count++
					b.Add(strings.Join(row, cellSep), domain.Location{Paragraph: count})
				}
			case "tbl":
				depth--
			}

		case xml.CharData:
			if inText {
				write(string(t))
			}
		}
	}
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads the title from docProps/core.xml.
func extractTitle(reader *zip.Reader) string {
	content, err := readPart(reader, corePart)
	if err != nil || content == nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
