package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	result   *domain.UploadResult
	entities []domain.ExtractedEntity
	err      error

	uploads []string
}

func (m *mockDocumentService) Upload(_ context.Context, raw *domain.RawDocument) (*domain.UploadResult, error) {
	m.uploads = append(m.uploads, raw.Name)
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
	return nil, m.err
}

func (m *mockDocumentService) Entities(_ context.Context, _ string) ([]domain.ExtractedEntity, error) {
	return m.entities, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentService) Discard(_ context.Context, _ string) error {
	return m.err
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	result *domain.AskResult
	turns  []domain.Turn
	err    error

	requests []domain.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req domain.AskRequest) (*domain.AskResult, error) {
	m.requests = append(m.requests, req)
	return m.result, m.err
}

func (m *mockAskService) History(_ context.Context, _ string, _ int) ([]domain.Turn, error) {
	return m.turns, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	entries     [][2]string
	validateErr error

	set         map[string]string
	llmProvider domain.AIProvider
	llmModel    string
	llmKey      string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		set:      make(map[string]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunking.size", "llm.provider"}
}

func (m *mockSettingsService) Entries() ([][2]string, error) {
	return m.entries, nil
}

func (m *mockSettingsService) SetEmbeddingProvider(domain.AIProvider, string, string) error {
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llmProvider, m.llmModel, m.llmKey = provider, model, apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.validateErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.validateErr }

// withServices installs services for one test and clears them afterwards.
func withServices(t *testing.T, s *Services) {
	t.Helper()
	prev := bootstrap
	bootstrap = nil
	setServices(s)
	t.Cleanup(func() {
		bootstrap = prev
		setServices(&Services{})
	})
}

// runCLI executes the root command with args and stdin, returning all output.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
		askJSON = false
		extractJSON = false
		globalFlags = Options{}
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
