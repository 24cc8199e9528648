package mcp

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	result    *domain.UploadResult
	documents []domain.Document
	entities  []domain.ExtractedEntity
	err       error

	lastUpload *domain.RawDocument
}

func (m *mockDocumentService) Upload(_ context.Context, raw *domain.RawDocument) (*domain.UploadResult, error) {
	m.lastUpload = raw
	return m.result, m.err
}

func (m *mockDocumentService) UploadMany(
	ctx context.Context, raws []*domain.RawDocument,
) ([]*domain.UploadResult, []error) {
	results := make([]*domain.UploadResult, len(raws))
	errs := make([]error, len(raws))
	for i, raw := range raws {
		results[i], errs[i] = m.Upload(ctx, raw)
	}
	return results, errs
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	if len(m.documents) == 0 {
		return nil, m.err
	}
	return &m.documents[0], m.err
}

func (m *mockDocumentService) Entities(_ context.Context, _ string) ([]domain.ExtractedEntity, error) {
	return m.entities, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Discard(_ context.Context, _ string) error {
	return m.err
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	result *domain.AskResult
	turns  []domain.Turn
	err    error

	lastRequest domain.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req domain.AskRequest) (*domain.AskResult, error) {
	m.lastRequest = req
	return m.result, m.err
}

func (m *mockAskService) History(_ context.Context, _ string, _ int) ([]domain.Turn, error) {
	return m.turns, m.err
}
