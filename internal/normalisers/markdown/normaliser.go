package markdown

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/normalisers/layout"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	heading   = regexp.MustCompile(`^#{1,6}\s+(.*?)\s*#*\s*$`)
	fence     = regexp.MustCompile("^(```|~~~)")
	rule      = regexp.MustCompile(`^([-*_]\s*){3,}$`)
	separator = regexp.MustCompile(`^\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|?$`)
	quote     = regexp.MustCompile(`^(>\s?)+`)
	listItem  = regexp.MustCompile(`^([-*+]|\d+[.)])\s+`)

	image    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	link     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	code     = regexp.MustCompile("`([^`]+)`")
	strong   = regexp.MustCompile(`\*\*(\S(?:[^*]*\S)?)\*\*`)
	strongU  = regexp.MustCompile(`__(\S(?:[^_]*\S)?)__`)
	emphasis = regexp.MustCompile(`\*(\S(?:[^*]*\S)?)\*`)
)

// Normaliser handles Markdown documents. Every heading starts a new
// section and becomes a paragraph of its own, so chunks never straddle a
// heading boundary unless a section is shorter than a chunk.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format this normaliser decodes.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatMarkdown
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Normalise strips Markdown syntax and maps each block to its paragraph
// number and enclosing heading.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if bytes.IndexByte(raw.Content, 0) >= 0 {
		return nil, domain.ErrCorruptedFile
	}

	var (
		b       layout.Builder
		block   []string
		section string
		para    int
		inFence bool
	)
	flush := func() {
		if len(block) == 0 {
			return
		}
		if b.Add(strings.Join(block, "\n"), domain.Location{Paragraph: para + 1, Section: section}) {
			para++
		}
		block = block[:0]
	}

	content := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	for _, line := range strings.Split(content, "\n") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(line)

		if fence.MatchString(trimmed) {
			flush()
			inFence = !inFence
			continue
		}
		if inFence {
			block = append(block, line)
			continue
		}

		switch {
		case trimmed == "":
			flush()
		case heading.MatchString(trimmed):
			flush()
			section = inline(heading.FindStringSubmatch(trimmed)[1])
			block = append(block, section)
			flush()
		case rule.MatchString(trimmed):
			flush()
		case separator.MatchString(trimmed):
		case strings.HasPrefix(trimmed, "|"):
			block = append(block, tableRow(trimmed))
		default:
			trimmed = quote.ReplaceAllString(trimmed, "")
			trimmed = listItem.ReplaceAllString(trimmed, "")
			block = append(block, inline(trimmed))
		}
	}
	flush()

	doc, err := b.Build(raw, domain.FormatMarkdown)
	if err != nil {
		return nil, err
	}
	return &driven.NormaliseResult{Document: *doc}, nil
}

// inline removes span-level markup, keeping link and image text.
func inline(s string) string {
	s = image.ReplaceAllString(s, "$1")
	s = link.ReplaceAllString(s, "$1")
	s = code.ReplaceAllString(s, "$1")
	s = strong.ReplaceAllString(s, "$1")
	s = strongU.ReplaceAllString(s, "$1")
	return emphasis.ReplaceAllString(s, "$1")
}

// tableRow renders a table row as "label: value" when it has two cells,
// the usual term sheet layout, and joins the cells with " | " otherwise.
func tableRow(row string) string {
	row = strings.TrimSuffix(strings.TrimPrefix(row, "|"), "|")
	var cells []string
	for _, cell := range strings.Split(row, "|") {
		if cell = inline(strings.TrimSpace(cell)); cell != "" {
			cells = append(cells, cell)
		}
	}
	if len(cells) == 2 {
		return cells[0] + ": " + cells[1]
	}
	return strings.Join(cells, " | ")
}
