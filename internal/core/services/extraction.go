package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/logger"
)

// ExtractionService recognises financial entities in a document.
// Recognisers run concurrently; Reconcile is the only join point.
type ExtractionService struct {
	recognisers []driven.Recogniser
	threshold   float64
	boost       float64
}

// NewExtractionService creates an extraction service.
func NewExtractionService(cfg domain.ExtractionSettings, recognisers ...driven.Recogniser) *ExtractionService {
	threshold, boost := cfg.OverlapThreshold, cfg.MergeBoost
	if threshold <= 0 || threshold > 1 {
		threshold = domain.DefaultAppSettings().Extraction.OverlapThreshold
	}
	if boost < 0 {
		boost = 0
	}
	return &ExtractionService{
		recognisers: recognisers,
		threshold:   threshold,
		boost:       boost,
	}
}

// Extract returns the reconciled entities of doc.
// A failing recogniser is skipped with a warning unless all of them fail.
func (s *ExtractionService) Extract(ctx context.Context, doc *domain.Document) ([]domain.ExtractedEntity, error) {
	if doc == nil {
		return nil, fmt.Errorf("extract: %w", domain.ErrInvalidInput)
	}
	logger.Section("Extraction")
	logger.Debug("Document %s: %d bytes, %d recognisers", doc.ID, len(doc.Content), len(s.recognisers))

	results := make([][]domain.Candidate, len(s.recognisers))
	errs := make([]error, len(s.recognisers))

	var wg sync.WaitGroup
	for i, r := range s.recognisers {
		wg.Add(1)
		go func(i int, r driven.Recogniser) {
			defer wg.Done()
			results[i], errs[i] = r.Recognise(ctx, doc)
		}(i, r)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var candidates []domain.Candidate
	var failures []error
	for i, r := range s.recognisers {
		if errs[i] != nil {
			logger.Warn("Recogniser %s failed, continuing without it: %v", r.Name(), errs[i])
			failures = append(failures, fmt.Errorf("%s: %w", r.Name(), errs[i]))
			continue
		}
		n := len(doc.Content)
		for _, c := range results[i] {
			if !c.Span.Valid(n) || !c.Type.IsValid() {
				logger.Debug("Dropping %s candidate %q at [%d,%d)", c.Type, c.Raw, c.Span.Start, c.Span.End)
				continue
			}
			candidates = append(candidates, c)
		}
		logger.Debug("Recogniser %s: %d candidates", r.Name(), len(results[i]))
	}
	if len(s.recognisers) > 0 && len(failures) == len(s.recognisers) {
		return nil, fmt.Errorf("extract: %w", errors.Join(failures...))
	}

	entities := Reconcile(candidates, s.threshold, s.boost)
	logger.Info("Extracted %d entities from %d candidates", len(entities), len(candidates))
	return entities, nil
}
