// Package pattern provides the deterministic entity recogniser.
// Rules are regular expressions over the normalised text, each bound to one
// entity type and a normaliser that canonicalises and scores the match.
package pattern

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/extractors/values"
	"github.com/custodia-labs/findoc/internal/logger"
)

// Ensure Recogniser implements the interface.
var _ driven.Recogniser = (*Recogniser)(nil)

// Recogniser applies the rule set to a document.
type Recogniser struct {
	dates      *values.DateParser
	strictISIN bool
	ruleSet    []rule
}

// Option configures the recogniser.
type Option func(*Recogniser)

// WithDateLayouts sets the layouts tried when normalising dates.
func WithDateLayouts(layouts []string, dayFirst bool) Option {
	return func(r *Recogniser) {
		r.dates = values.NewDateParser(layouts, dayFirst)
	}
}

// WithStrictISIN drops ISIN-shaped codes whose check digit fails.
func WithStrictISIN(strict bool) Option {
	return func(r *Recogniser) {
		r.strictISIN = strict
	}
}

// New creates a pattern recogniser.
func New(opts ...Option) *Recogniser {
	r := &Recogniser{}
	for _, opt := range opts {
		opt(r)
	}
	if r.dates == nil {
		r.dates = values.NewDateParser(nil, false)
	}
	r.ruleSet = r.rules()
	return r
}

// NewFromSettings creates a recogniser from extraction settings.
func NewFromSettings(cfg domain.ExtractionSettings) *Recogniser {
	return New(
		WithDateLayouts(cfg.DateLayouts, cfg.DayFirst),
		WithStrictISIN(cfg.StrictISIN),
	)
}

// Name returns the recogniser name.
func (r *Recogniser) Name() string {
	return domain.StrategyPattern.String()
}

// Recognise runs every rule over the document content.
func (r *Recogniser) Recognise(ctx context.Context, doc *domain.Document) ([]domain.Candidate, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	type key struct {
		t    domain.EntityType
		span domain.Span
	}
	seen := make(map[key]int)
	var out []domain.Candidate

	for _, rl := range r.ruleSet {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, loc := range rl.re.FindAllStringSubmatchIndex(doc.Content, -1) {
			start, end := loc[2*rl.group], loc[2*rl.group+1]
			if start < 0 {
				continue
			}
			start, end = trim(doc.Content, start, end)
			if start >= end {
				continue
			}
			raw := doc.Content[start:end]
			normalized, confidence, ok := rl.normalise(raw)
			if !ok {
				logger.Debug("pattern: rule %s rejected %q", rl.name, raw)
				continue
			}

			c := domain.PatternMatch(rl.entity, raw, normalized, domain.Span{Start: start, End: end}, confidence, rl.name)
			k := key{t: c.Type, span: c.Span}
			if i, dup := seen[k]; dup {
				if c.Confidence > out[i].Confidence {
					out[i] = c
				}
				continue
			}
			seen[k] = len(out)
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start < out[j].Span.Start
		}
		return out[i].Type < out[j].Type
	})
	logger.Debug("pattern: %d candidates in %s", len(out), doc.ID)
	return out, nil
}

// trim narrows [start, end) past surrounding whitespace and trailing
// punctuation.
func trim(s string, start, end int) (int, int) {
	for start < end && strings.ContainsRune(" \t\n", rune(s[start])) {
		start++
	}
	for end > start && strings.ContainsRune(" \t\n.,;:", rune(s[end-1])) {
		end--
	}
	return start, end
}
