package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/extractors/pattern"
	"github.com/custodia-labs/findoc/internal/extractors/statistical"
)

// stubRecogniser implements driven.Recogniser for testing.
type stubRecogniser struct {
	name  string
	cands []domain.Candidate
	err   error
}

func (s *stubRecogniser) Name() string { return s.name }

func (s *stubRecogniser) Recognise(_ context.Context, _ *domain.Document) ([]domain.Candidate, error) {
	return s.cands, s.err
}

// stubNER implements driven.NERModel for testing.
type stubNER struct {
	spans []driven.NERSpan
	err   error
}

func (s *stubNER) Recognise(_ context.Context, _ string) ([]driven.NERSpan, error) {
	return s.spans, s.err
}

func (s *stubNER) ModelName() string { return "stub" }

func extractionSettings() domain.ExtractionSettings {
	return domain.DefaultAppSettings().Extraction
}

// TestExtractionService_ISIN tests ISIN extraction from running text.
func TestExtractionService_ISIN(t *testing.T) {
	svc := NewExtractionService(extractionSettings(), pattern.New(), statistical.New(&stubNER{}))
	doc := &domain.Document{ID: "d1", Content: "The bond ISIN US0378331005 matures on 15 March 2030."}

	entities, err := svc.Extract(context.Background(), doc)
	require.NoError(t, err)

	var isin *domain.ExtractedEntity
	for i := range entities {
		if entities[i].Type == domain.EntityISIN {
			isin = &entities[i]
		}
	}
	require.NotNil(t, isin)
	assert.Equal(t, "US0378331005", isin.Normalized)
	assert.Equal(t, domain.ProvenancePattern, isin.Provenance)
}

// TestExtractionService_StatisticalCounterparty tests a counterparty only the
// statistical model finds.
func TestExtractionService_StatisticalCounterparty(t *testing.T) {
	ner := &stubNER{spans: []driven.NERSpan{{Label: "ORG", Start: 10, End: 19, Score: 0.9}}}
	svc := NewExtractionService(extractionSettings(), pattern.New(), statistical.New(ner))
	doc := &domain.Document{ID: "d1", Content: "Signed by Acme Corp on behalf of the buyer."}

	entities, err := svc.Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, domain.EntityCounterparty, entities[0].Type)
	assert.Equal(t, "Acme Corp", entities[0].Raw)
	assert.Equal(t, 10, entities[0].Start)
	assert.Equal(t, 19, entities[0].End)
	assert.Equal(t, domain.ProvenanceStatistical, entities[0].Provenance)
}

// TestExtractionService_Merged tests agreement between strategies.
func TestExtractionService_Merged(t *testing.T) {
	content := "Trade Date: 15 March 2024"
	ner := &stubNER{spans: []driven.NERSpan{{Label: "DATE", Start: 12, End: 25, Score: 0.8}}}
	svc := NewExtractionService(extractionSettings(), pattern.New(), statistical.New(ner))

	entities, err := svc.Extract(context.Background(), &domain.Document{ID: "d1", Content: content})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "2024-03-15", entities[0].Normalized)
	assert.Equal(t, domain.ProvenanceMerged, entities[0].Provenance)
	assert.InDelta(t, 1.0, entities[0].Confidence, 1e-9)
}

// TestExtractionService_StatisticalFailureDegrades tests pattern-only fallback.
func TestExtractionService_StatisticalFailureDegrades(t *testing.T) {
	ner := &stubNER{err: domain.ErrRateLimited}
	svc := NewExtractionService(extractionSettings(), pattern.New(), statistical.New(ner))

	entities, err := svc.Extract(context.Background(), &domain.Document{ID: "d1", Content: "ISIN US0378331005"})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, domain.EntityISIN, entities[0].Type)
}

// TestExtractionService_AllFail tests that total failure is reported.
func TestExtractionService_AllFail(t *testing.T) {
	svc := NewExtractionService(extractionSettings(),
		&stubRecogniser{name: "a", err: errors.New("boom")},
		&stubRecogniser{name: "b", err: errors.New("bang")},
	)

	_, err := svc.Extract(context.Background(), &domain.Document{ID: "d1", Content: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "bang")
}

// TestExtractionService_DropsOutOfBounds tests span validation.
func TestExtractionService_DropsOutOfBounds(t *testing.T) {
	svc := NewExtractionService(extractionSettings(), &stubRecogniser{name: "a", cands: []domain.Candidate{
		domain.StatisticalMatch(domain.EntityCounterparty, "x", "x", span(0, 100), 0.9, "ORG"),
		domain.StatisticalMatch(domain.EntityCounterparty, "ab", "ab", span(0, 2), 0.9, "ORG"),
		domain.StatisticalMatch("bogus", "ab", "ab", span(0, 2), 0.9, "X"),
	}})

	entities, err := svc.Extract(context.Background(), &domain.Document{ID: "d1", Content: "abc"})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "ab", entities[0].Raw)
}

// TestExtractionService_NilDocument tests input validation.
func TestExtractionService_NilDocument(t *testing.T) {
	_, err := NewExtractionService(extractionSettings()).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// TestExtractionService_Cancelled tests context cancellation.
func TestExtractionService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewExtractionService(extractionSettings(), pattern.New())
	_, err := svc.Extract(ctx, &domain.Document{ID: "d1", Content: "ISIN US0378331005"})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestExtractionService_DefaultsThreshold tests invalid settings fall back.
func TestExtractionService_DefaultsThreshold(t *testing.T) {
	svc := NewExtractionService(domain.ExtractionSettings{OverlapThreshold: 3, MergeBoost: -1})
	assert.InDelta(t, 0.5, svc.threshold, 1e-9)
	assert.Zero(t, svc.boost)
}
