package services

import (
	"sort"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// occurrence is one reconciled field occurrence and the candidates that
// contributed to it.
type occurrence struct {
	winner     domain.Candidate
	confidence float64
	pattern    bool
	stat       bool
}

// Reconcile merges recogniser candidates into entities.
//
// Candidates of the same type whose spans overlap by more than threshold
// (intersection over the shorter span) describe one occurrence. The
// occurrence keeps the pattern candidate if any, else the best statistical
// one; equal confidences prefer the earlier span. Confidence is the maximum
// over contributors, raised by boost (capped at 1) when both strategies
// agreed. Output is ordered by start offset, then type.
func Reconcile(candidates []domain.Candidate, threshold, boost float64) []domain.ExtractedEntity {
	ordered := make([]domain.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Strategy != b.Strategy {
			return a.Strategy == domain.StrategyPattern
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.Span.End < b.Span.End
	})

	var occs []*occurrence
	for _, c := range ordered {
		occ := findOccurrence(occs, c, threshold)
		if occ == nil {
			occ = &occurrence{winner: c}
			occs = append(occs, occ)
		}
		occ.confidence = max(occ.confidence, c.Confidence)
		switch c.Strategy {
		case domain.StrategyPattern:
			occ.pattern = true
		case domain.StrategyStatistical:
			occ.stat = true
		}
	}

	entities := make([]domain.ExtractedEntity, 0, len(occs))
	for _, occ := range occs {
		w := occ.winner
		e := domain.ExtractedEntity{
			Type:       w.Type,
			Raw:        w.Raw,
			Normalized: w.Normalized,
			Start:      w.Span.Start,
			End:        w.Span.End,
			Confidence: occ.confidence,
			Provenance: w.Strategy.Provenance(),
		}
		if occ.pattern && occ.stat {
			e.Provenance = domain.ProvenanceMerged
			e.Confidence = min(1, occ.confidence+boost)
		}
		entities = append(entities, e)
	}

	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		if entities[i].Type != entities[j].Type {
			return entities[i].Type < entities[j].Type
		}
		return entities[i].End < entities[j].End
	})
	return entities
}

func findOccurrence(occs []*occurrence, c domain.Candidate, threshold float64) *occurrence {
	for _, occ := range occs {
		if occ.winner.Type == c.Type && occ.winner.Span.OverlapRatio(c.Span) > threshold {
			return occ
		}
	}
	return nil
}
