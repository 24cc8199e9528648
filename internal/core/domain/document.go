package domain

import (
	"sort"
	"time"
)

// Format identifies the source format of a document.
type Format string

// Supported document formats.
const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatXLSX     Format = "xlsx"
	FormatUnset    Format = ""
)

// IsValid returns true if the format is one the loader understands.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatText, FormatMarkdown, FormatXLSX:
		return true
	default:
		return false
	}
}

// MIMEType returns the canonical MIME type for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatText:
		return "text/plain"
	case FormatMarkdown:
		return "text/markdown"
	default:
		return ""
	}
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// AllFormats returns every supported format.
func AllFormats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatText, FormatMarkdown, FormatXLSX}
}

// Location identifies a place in the original document.
// Only the fields meaningful for the source format are set.
type Location struct {
	// Page is the 1-based PDF page.
	Page int

	// Paragraph is the 1-based paragraph (DOCX, plain text, Markdown).
	Paragraph int

	// Section is the nearest preceding Markdown heading.
	Section string

	// Sheet is the XLSX sheet name.
	Sheet string

	// Row is the 1-based XLSX row.
	Row int
}

// OffsetMapping marks where a location begins in the normalised text.
type OffsetMapping struct {
	// Offset is the byte offset into Document.Content.
	Offset int

	// Location is the original location starting at Offset.
	Location Location
}

// Document is the canonical representation of an uploaded file after
// normalisation. It is immutable once loaded.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the original file name, if known.
	Name string

	// Format is the format the document was decoded from.
	Format Format

	// Content is the full normalised text.
	Content string

	// Mappings is ordered by Offset and relates text back to pages,
	// paragraphs or sheet rows.
	Mappings []OffsetMapping

	// LoadedAt is when the document was decoded.
	LoadedAt time.Time
}

// LocationAt returns the original location for a byte offset.
// The second return is false when no mapping covers the offset.
func (d *Document) LocationAt(offset int) (Location, bool) {
	if offset < 0 || offset > len(d.Content) || len(d.Mappings) == 0 {
		return Location{}, false
	}
	i := sort.Search(len(d.Mappings), func(i int) bool {
		return d.Mappings[i].Offset > offset
	})
	if i == 0 {
		return Location{}, false
	}
	return d.Mappings[i-1].Location, true
}

// Span is a half-open byte range [Start, End) in a document's content.
type Span struct {
	Start int
	End   int
}

// Len returns the span length.
func (s Span) Len() int {
	return s.End - s.Start
}

// Valid reports whether the span is non-empty and fits in a text of length n.
func (s Span) Valid(n int) bool {
	return s.Start >= 0 && s.Start < s.End && s.End <= n
}

// Intersection returns the length of the overlap between two spans.
func (s Span) Intersection(o Span) int {
	lo, hi := max(s.Start, o.Start), min(s.End, o.End)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// OverlapRatio returns the overlap divided by the shorter span's length.
func (s Span) OverlapRatio(o Span) float64 {
	shorter := min(s.Len(), o.Len())
	if shorter <= 0 {
		return 0
	}
	return float64(s.Intersection(o)) / float64(shorter)
}

// Chunk is a contiguous, retrievable unit of document text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Start is the byte offset where the chunk begins.
	Start int

	// End is the byte offset where the chunk ends (exclusive).
	End int

	// Position is the ordinal position within the document.
	Position int

	// Page is the PDF page the chunk starts on, zero for other formats.
	Page int

	// Embedding is the vector representation for semantic retrieval.
	Embedding []float32
}

// ScoredChunk is a chunk ranked against a query.
type ScoredChunk struct {
	Chunk      *Chunk
	Similarity float64
}
