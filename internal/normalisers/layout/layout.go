// Package layout assembles normalised document text from ordered segments
// and records where each segment starts.
package layout

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// SegmentSeparator joins consecutive segments and marks a paragraph break.
const SegmentSeparator = "\n\n"

var (
	spaceRun = regexp.MustCompile(`[ \t\f\v\x{00A0}\x{2000}-\x{200B}\x{3000}]+`)
	blankRun = regexp.MustCompile(`\n{3,}`)
)

// Whitespace normalises line endings to LF, collapses runs of horizontal
// whitespace to one space, trims every line and keeps at most one blank
// line between paragraphs.
func Whitespace(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankRun.ReplaceAllString(s, SegmentSeparator)
	return strings.Trim(s, "\n")
}

// Paragraphs splits normalised text on blank lines.
func Paragraphs(s string) []string {
	parts := strings.Split(s, SegmentSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Builder accumulates segments into a single normalised text.
// The zero value is ready to use.
type Builder struct {
	text     strings.Builder
	mappings []domain.OffsetMapping
}

// Add appends a segment originating at loc. Segments that are empty after
// normalisation are dropped and Add returns false.
func (b *Builder) Add(segment string, loc domain.Location) bool {
	segment = Whitespace(segment)
	if segment == "" {
		return false
	}
	if b.text.Len() > 0 {
		b.text.WriteString(SegmentSeparator)
	}
	b.mappings = append(b.mappings, domain.OffsetMapping{Offset: b.text.Len(), Location: loc})
	b.text.WriteString(segment)
	return true
}

// Len returns the length of the text built so far.
func (b *Builder) Len() int {
	return b.text.Len()
}

// Build returns the assembled document.
// Returns domain.ErrEmptyContent if no segment had text.
func (b *Builder) Build(raw *domain.RawDocument, format domain.Format) (*domain.Document, error) {
	if b.text.Len() == 0 {
		return nil, domain.ErrEmptyContent
	}
	mappings := make([]domain.OffsetMapping, len(b.mappings))
	copy(mappings, b.mappings)

	return &domain.Document{
		ID:       uuid.New().String(),
		Name:     raw.Name,
		Format:   format,
		Content:  b.text.String(),
		Mappings: mappings,
		LoadedAt: time.Now(),
	}, nil
}
