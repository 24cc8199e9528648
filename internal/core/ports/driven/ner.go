package driven

import "context"

// NERModel is a statistical named-entity tagger.
// This is an optional service - when nil, extraction is pattern-only.
type NERModel interface {
	// Recognise tags entity spans in text. Offsets are byte offsets.
	Recognise(ctx context.Context, text string) ([]NERSpan, error)

	// ModelName returns the name of the model being used.
	ModelName() string
}

// NERSpan is one tagged span.
type NERSpan struct {
	// Label is the model's entity group (ORG, DATE, MONEY, MISC, PER, LOC).
	Label string

	// Start is the byte offset where the span begins.
	Start int

	// End is the byte offset where the span ends (exclusive).
	End int

	// Score is the model's confidence in [0, 1].
	Score float64
}
