// Package chunker splits document text into overlapping chunks that end on
// paragraph, sentence or word boundaries where possible.
package chunker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of bytes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping bytes.
const DefaultChunkOverlap = 150

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c2b0e-8a4d-4c57-9d3e-2b7f4e1a9c60")

// Processor splits document content into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker. Returns domain.ErrInvalidChunkConfig unless
// 0 <= overlap < size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := (domain.ChunkingSettings{Size: p.chunkSize, Overlap: p.overlap}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", err, p.chunkSize, p.overlap)
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// Chunks cover the content with no gaps: each chunk starts at or before the
// previous chunk's end, and the last chunk ends at the end of the content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	content := doc.Content
	n := len(content)
	if n == 0 {
		return nil, nil
	}

	stride := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, n/stride+1)

	start, end := 0, 0
	for position := 0; ; position++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end = p.cut(content, start, end)
		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(doc.ID, position),
			DocumentID: doc.ID,
			Content:    content[start:end],
			Start:      start,
			End:        end,
			Position:   position,
		})
		if end == n {
			return chunks, nil
		}
		start = p.nextStart(content, start, end)
	}
}

// cut picks the end of the chunk beginning at start. The end always lies
// past prevEnd so chunk ends never move backwards.
func (p *Processor) cut(content string, start, prevEnd int) int {
	limit := start + p.chunkSize
	if limit >= len(content) {
		return len(content)
	}
	floor := max(start+p.chunkSize/2, prevEnd)
	window := content[start:limit]

	// Paragraph break, then sentence end, then any whitespace.
	if i := strings.LastIndex(window, "\n\n"); i >= 0 && start+i+2 > floor {
		return start + i + 2
	}
	if i := lastSentenceEnd(window); i >= 0 && start+i > floor {
		return start + i
	}
	if i := strings.LastIndexAny(window, " \n"); i >= 0 && start+i+1 > floor {
		return start + i + 1
	}
	return runeFloor(content, limit, floor)
}

// nextStart steps back by the overlap, then forward to a word start,
// without passing end.
func (p *Processor) nextStart(content string, start, end int) int {
	next := max(end-p.overlap, start+1)
	for next < end && next > 0 && !isSpace(content[next-1]) {
		next++
	}
	for next < end && !utf8.RuneStart(content[next]) {
		next++
	}
	return next
}

// lastSentenceEnd returns the offset just after the last ". ", "! ", "? "
// or sentence-ending newline in s, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?', ';':
			if isSpace(s[i+1]) {
				return i + 2
			}
		}
	}
	return -1
}

// runeFloor moves a hard cut back to a rune boundary above floor, or
// forward past the rune when no boundary fits.
func runeFloor(content string, i, floor int) int {
	for j := i; j > floor; j-- {
		if utf8.RuneStart(content[j]) {
			return j
		}
	}
	for i < len(content) && !utf8.RuneStart(content[i]) {
		i++
	}
	return i
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n'
}

func chunkID(documentID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"/"+strconv.Itoa(position))).String()
}
