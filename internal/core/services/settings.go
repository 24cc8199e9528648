package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// settingField binds a config key to a field of domain.AppSettings.
// field returns a pointer to the bound field.
type settingField struct {
	key    string
	secret bool
	field  func(a *domain.AppSettings) any
}

// settingFields lists every recognised key in display order.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
var settingFields = []settingField{
	{key: "embedding.provider", field: func(a *domain.AppSettings) any { return &a.Embedding.Provider }},
	{key: "embedding.model", field: func(a *domain.AppSettings) any { return &a.Embedding.Model }},
	{key: "embedding.base_url", field: func(a *domain.AppSettings) any { return &a.Embedding.BaseURL }},
	{key: "embedding.api_key", secret: true, field: func(a *domain.AppSettings) any { return &a.Embedding.APIKey }},
	{key: "embedding.batch_size", field: func(a *domain.AppSettings) any { return &a.Embedding.BatchSize }},
	{key: "embedding.workers", field: func(a *domain.AppSettings) any { return &a.Embedding.Workers }},
	{key: "embedding.timeout", field: func(a *domain.AppSettings) any { return &a.Embedding.Timeout }},

	{key: "llm.provider", field: func(a *domain.AppSettings) any { return &a.LLM.Provider }},
	{key: "llm.model", field: func(a *domain.AppSettings) any { return &a.LLM.Model }},
	{key: "llm.base_url", field: func(a *domain.AppSettings) any { return &a.LLM.BaseURL }},
	{key: "llm.api_key", secret: true, field: func(a *domain.AppSettings) any { return &a.LLM.APIKey }},
	{key: "llm.max_tokens", field: func(a *domain.AppSettings) any { return &a.LLM.MaxTokens }},
	{key: "llm.timeout", field: func(a *domain.AppSettings) any { return &a.LLM.Timeout }},

	{key: "ner.provider", field: func(a *domain.AppSettings) any { return &a.NER.Provider }},
	{key: "ner.model", field: func(a *domain.AppSettings) any { return &a.NER.Model }},
	{key: "ner.base_url", field: func(a *domain.AppSettings) any { return &a.NER.BaseURL }},
	{key: "ner.api_key", secret: true, field: func(a *domain.AppSettings) any { return &a.NER.APIKey }},

	{key: "provider.max_retries", field: func(a *domain.AppSettings) any { return &a.Provider.MaxRetries }},
	{key: "provider.base_delay", field: func(a *domain.AppSettings) any { return &a.Provider.BaseDelay }},
	{key: "provider.max_delay", field: func(a *domain.AppSettings) any { return &a.Provider.MaxDelay }},
	{key: "provider.requests_per_second", field: func(a *domain.AppSettings) any { return &a.Provider.RequestsPerSecond }},

	{key: "chunking.size", field: func(a *domain.AppSettings) any { return &a.Chunking.Size }},
	{key: "chunking.overlap", field: func(a *domain.AppSettings) any { return &a.Chunking.Overlap }},

	{key: "extraction.overlap_threshold", field: func(a *domain.AppSettings) any { return &a.Extraction.OverlapThreshold }},
	{key: "extraction.merge_boost", field: func(a *domain.AppSettings) any { return &a.Extraction.MergeBoost }},
	{key: "extraction.date_layouts", field: func(a *domain.AppSettings) any { return &a.Extraction.DateLayouts }},
	{key: "extraction.day_first", field: func(a *domain.AppSettings) any { return &a.Extraction.DayFirst }},
	{key: "extraction.strict_isin", field: func(a *domain.AppSettings) any { return &a.Extraction.StrictISIN }},

	{key: "retrieval.top_k", field: func(a *domain.AppSettings) any { return &a.Retrieval.TopK }},
	{key: "retrieval.max_context_chars", field: func(a *domain.AppSettings) any { return &a.Retrieval.MaxContextChars }},
	{key: "retrieval.history_turns", field: func(a *domain.AppSettings) any { return &a.Retrieval.HistoryTurns }},
	{key: "retrieval.follow_up_threshold", field: func(a *domain.AppSettings) any { return &a.Retrieval.FollowUpThreshold }},
	{key: "retrieval.min_similarity", field: func(a *domain.AppSettings) any { return &a.Retrieval.MinSimilarity }},

	{key: "session.backend", field: func(a *domain.AppSettings) any { return &a.Session.Backend }},
	{key: "session.max_turns", field: func(a *domain.AppSettings) any { return &a.Session.MaxTurns }},
	{key: "session.path", field: func(a *domain.AppSettings) any { return &a.Session.Path }},
	{key: "session.redis_addr", field: func(a *domain.AppSettings) any { return &a.Session.RedisAddr }},
	{key: "session.ttl", field: func(a *domain.AppSettings) any { return &a.Session.TTL }},
}

func lookupField(key string) (settingField, bool) {
	for _, f := range settingFields {
		if f.key == key {
			return f, true
		}
	}
	return settingField{}, false
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Keys absent from the store
// keep their defaults; malformed values are ignored.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	for _, f := range settingFields {
		raw, ok := s.configStore.Get(f.key)
		if !ok {
			continue
		}
		_ = assignStored(f.field(&settings), raw)
	}
	return &settings, nil
}

// Save persists application settings. Empty API keys are not written so
// that a saved key is never cleared by accident.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, f := range settingFields {
		value := storedValue(f.field(settings))
		if f.secret && value == "" {
			continue
		}
		if err := s.configStore.Set(f.key, value); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// Set parses value for key and persists it when the resulting settings
// are still valid.
func (s *SettingsService) Set(key, value string) error {
	f, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := parseInto(f.field(settings), value); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := validateSettings(settings); err != nil {
		return err
	}

	if err := s.configStore.Set(key, storedValue(f.field(settings))); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingFields))
	for i, f := range settingFields {
		keys[i] = f.key
	}
	return keys
}

// Entries returns the current settings as display rows.
func (s *SettingsService) Entries() ([][2]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	return Display(settings), nil
}

// IsSecret reports whether a key holds a credential that should be masked.
func IsSecret(key string) bool {
	f, ok := lookupField(key)
	return ok && f.secret
}

// Display renders every setting as key/value pairs, masking credentials.
func Display(settings *domain.AppSettings) [][2]string {
	out := make([][2]string, 0, len(settingFields))
	for _, f := range settingFields {
		value := fmt.Sprint(storedValue(f.field(settings)))
		if f.secret && value != "" {
			value = "********"
		}
		out = append(out, [2]string{f.key, value})
	}
	return out
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a local provider's endpoint and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}

// Validate checks settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return validateSettings(settings)
}

func validateSettings(a *domain.AppSettings) error {
	if err := a.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking size %d overlap %d: %w", a.Chunking.Size, a.Chunking.Overlap, err)
	}
	if a.Embedding.Provider != "" && !slices.Contains(domain.AllEmbeddingProviders(), a.Embedding.Provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, a.Embedding.Provider)
	}
	if a.LLM.Provider != "" && !a.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider %s", domain.ErrInvalidInput, a.LLM.Provider)
	}
	if !a.NER.Provider.IsValid() {
		return fmt.Errorf("%w: invalid NER provider %s", domain.ErrInvalidInput, a.NER.Provider)
	}
	if t := a.Extraction.OverlapThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("%w: extraction.overlap_threshold must be in (0, 1]", domain.ErrInvalidInput)
	}
	if b := a.Extraction.MergeBoost; b < 0 || b > 1 {
		return fmt.Errorf("%w: extraction.merge_boost must be in [0, 1]", domain.ErrInvalidInput)
	}
	if t := a.Retrieval.FollowUpThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("%w: retrieval.follow_up_threshold must be in (0, 1]", domain.ErrInvalidInput)
	}
	if a.Retrieval.TopK <= 0 || a.Retrieval.MaxContextChars <= 0 || a.Retrieval.HistoryTurns < 0 {
		return fmt.Errorf("%w: retrieval limits must be positive", domain.ErrInvalidInput)
	}
	if !a.Session.Backend.IsValid() {
		return fmt.Errorf("%w: invalid session backend %s", domain.ErrInvalidInput, a.Session.Backend)
	}
	if a.Session.Backend == domain.SessionBackendRedis && a.Session.RedisAddr == "" {
		return fmt.Errorf("%w: session.redis_addr is required for the redis backend", domain.ErrInvalidInput)
	}
	if a.Embedding.Timeout <= 0 || a.LLM.Timeout <= 0 {
		return fmt.Errorf("%w: embedding.timeout and llm.timeout must be positive", domain.ErrInvalidInput)
	}
	if a.Provider.MaxRetries < 0 || a.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: provider limits cannot be negative", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// assignStored copies a decoded TOML value into the bound field.
// TOML integers arrive as int64 and arrays as []any.
func assignStored(ptr, raw any) error {
	switch p := ptr.(type) {
	case *string:
		v, ok := raw.(string)
		if !ok {
			return fmt.Errorf("not a string: %v", raw)
		}
		*p = v
	case *domain.AIProvider, *domain.NERProvider, *domain.SessionBackend, *time.Duration:
		v, ok := raw.(string)
		if !ok {
			return fmt.Errorf("not a string: %v", raw)
		}
		return parseInto(ptr, v)
	case *int:
		switch v := raw.(type) {
		case int64:
			*p = int(v)
		case int:
			*p = v
		default:
			return fmt.Errorf("not an integer: %v", raw)
		}
	case *float64:
		switch v := raw.(type) {
		case float64:
			*p = v
		case int64:
			*p = float64(v)
		case int:
			*p = float64(v)
		default:
			return fmt.Errorf("not a number: %v", raw)
		}
	case *bool:
		v, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("not a boolean: %v", raw)
		}
		*p = v
	case *[]string:
		switch v := raw.(type) {
		case []string:
			*p = v
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if str, ok := item.(string); ok {
					out = append(out, str)
				}
			}
			*p = out
		default:
			return fmt.Errorf("not a list: %v", raw)
		}
	}
	return nil
}

// parseInto parses command-line text into the bound field.
// Lists are separated by ";" since date layouts contain commas.
func parseInto(ptr any, value string) error {
	value = strings.TrimSpace(value)
	switch p := ptr.(type) {
	case *string:
		*p = value
	case *domain.AIProvider:
		v := domain.AIProvider(value)
		if v != "" && !v.IsValid() {
			return fmt.Errorf("unknown provider %q", value)
		}
		*p = v
	case *domain.NERProvider:
		v := domain.NERProvider(value)
		if !v.IsValid() {
			return fmt.Errorf("unknown NER provider %q", value)
		}
		*p = v
	case *domain.SessionBackend:
		v := domain.SessionBackend(value)
		if !v.IsValid() {
			return fmt.Errorf("unknown session backend %q", value)
		}
		*p = v
	case *time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*p = d
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*p = f
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*p = b
	case *[]string:
		var out []string
		for _, item := range strings.Split(value, ";") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*p = out
	default:
		return fmt.Errorf("unsupported setting type %T", ptr)
	}
	return nil
}

// storedValue converts a bound field into the value written to TOML.
func storedValue(ptr any) any {
	switch p := ptr.(type) {
	case *string:
		return *p
	case *domain.AIProvider:
		return p.String()
	case *domain.NERProvider:
		return p.String()
	case *domain.SessionBackend:
		return p.String()
	case *time.Duration:
		return p.String()
	case *int:
		return *p
	case *float64:
		return *p
	case *bool:
		return *p
	case *[]string:
		return *p
	default:
		return nil
	}
}
