// Package statistical adapts a NER model to the recogniser port.
package statistical

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/extractors/values"
	"github.com/custodia-labs/findoc/internal/logger"
)

// Ensure Recogniser implements the interface.
var _ driven.Recogniser = (*Recogniser)(nil)

// DefaultLabels maps model labels onto entity types.
// Labels not listed (PER, LOC, ...) are ignored.
func DefaultLabels() map[string]domain.EntityType {
	return map[string]domain.EntityType{
		"ORG":     domain.EntityCounterparty,
		"DATE":    domain.EntityDate,
		"MONEY":   domain.EntityNotional,
		"MISC":    domain.EntityUnderlying,
		"PRODUCT": domain.EntityUnderlying,
	}
}

// Recogniser turns NER spans into statistical candidates.
type Recogniser struct {
	model    driven.NERModel
	labels   map[string]domain.EntityType
	dates    *values.DateParser
	minScore float64
}

// Option configures the recogniser.
type Option func(*Recogniser)

// WithLabels replaces the label mapping.
func WithLabels(labels map[string]domain.EntityType) Option {
	return func(r *Recogniser) {
		r.labels = labels
	}
}

// WithDateLayouts sets the layouts tried when normalising DATE spans.
func WithDateLayouts(layouts []string, dayFirst bool) Option {
	return func(r *Recogniser) {
		r.dates = values.NewDateParser(layouts, dayFirst)
	}
}

// WithMinScore drops spans scored below score.
func WithMinScore(score float64) Option {
	return func(r *Recogniser) {
		r.minScore = score
	}
}

// New creates a recogniser backed by model.
func New(model driven.NERModel, opts ...Option) *Recogniser {
	r := &Recogniser{
		model:  model,
		labels: DefaultLabels(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.dates == nil {
		r.dates = values.NewDateParser(nil, false)
	}
	return r
}

// NewFromSettings creates a recogniser reading dates with the configured
// layouts and day-first switch.
func NewFromSettings(model driven.NERModel, cfg domain.ExtractionSettings) *Recogniser {
	return New(model, WithDateLayouts(cfg.DateLayouts, cfg.DayFirst))
}

// Name returns the recogniser name.
func (r *Recogniser) Name() string {
	return domain.StrategyStatistical.String()
}

// Recognise tags the document content and maps each span to a candidate.
func (r *Recogniser) Recognise(ctx context.Context, doc *domain.Document) ([]domain.Candidate, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if r.model == nil {
		return nil, nil
	}

	spans, err := r.model.Recognise(ctx, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("ner model %s: %w", r.model.ModelName(), err)
	}

	n := len(doc.Content)
	out := make([]domain.Candidate, 0, len(spans))
	for _, s := range spans {
		t, ok := r.labels[s.Label]
		if !ok {
			continue
		}
		span := domain.Span{Start: s.Start, End: s.End}
		if !span.Valid(n) {
			logger.Debug("statistical: dropping %s span [%d,%d) outside %d bytes", s.Label, s.Start, s.End, n)
			continue
		}
		if s.Score < r.minScore {
			continue
		}
		raw := doc.Content[span.Start:span.End]
		out = append(out, domain.StatisticalMatch(t, raw, r.normalise(t, raw), span, clamp(s.Score), s.Label))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start < out[j].Span.Start
		}
		return out[i].Type < out[j].Type
	})
	logger.Debug("statistical: %d candidates from %d spans", len(out), len(spans))
	return out, nil
}

// normalise canonicalises the value where a parser exists and
// otherwise keeps the cleaned raw text.
func (r *Recogniser) normalise(t domain.EntityType, raw string) string {
	switch t {
	case domain.EntityDate:
		if iso, ok := r.dates.Normalise(raw); ok {
			return iso
		}
	case domain.EntityNotional:
		if a, ok := values.ParseAmount(raw); ok {
			return a.String()
		}
	case domain.EntityPaymentFrequency:
		if f, ok := values.Frequency(raw); ok {
			return f
		}
	case domain.EntityCouponOrSpread:
		if v, ok := values.Rate(raw); ok {
			return v
		}
	}
	return values.Text(raw)
}

func clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
