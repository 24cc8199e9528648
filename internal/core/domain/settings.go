package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or any OpenAI-compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// NERProvider identifies the statistical entity recogniser backend.
type NERProvider string

// Available NER providers.
const (
	// NERProviderLexicon is the built-in offline recogniser.
	NERProviderLexicon NERProvider = "lexicon"

	// NERProviderHuggingFace is a hosted token-classification model.
	NERProviderHuggingFace NERProvider = "huggingface"

	// NERProviderNone disables statistical recognition.
	NERProviderNone NERProvider = "none"
)

// IsValid returns true if the NER provider is recognised.
func (p NERProvider) IsValid() bool {
	switch p {
	case NERProviderLexicon, NERProviderHuggingFace, NERProviderNone:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p NERProvider) String() string {
	return string(p)
}

// SessionBackend selects where conversation sessions live.
type SessionBackend string

// Available session backends.
const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendSQLite SessionBackend = "sqlite"
	SessionBackendRedis  SessionBackend = "redis"
)

// IsValid returns true if the session backend is recognised.
func (b SessionBackend) IsValid() bool {
	switch b {
	case SessionBackendMemory, SessionBackendSQLite, SessionBackendRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b SessionBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible hosts).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of chunks sent per provider call.
	BatchSize int

	// Workers is the number of batches embedded concurrently.
	Workers int

	// Timeout bounds one embedding call: a batch while indexing or the
	// question while asking. Retries happen inside it.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible hosts).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Timeout bounds answer generation, retries included.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// NERSettings holds statistical recogniser configuration.
type NERSettings struct {
	Provider NERProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// ProviderSettings bounds retries and request rate for remote providers.
type ProviderSettings struct {
	// MaxRetries is the number of retries after a transient failure.
	MaxRetries int

	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff delay.
	MaxDelay time.Duration

	// RequestsPerSecond throttles provider calls; zero disables throttling.
	RequestsPerSecond float64
}

// ChunkingSettings holds chunker configuration, measured in bytes.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// Validate rejects configurations that cannot make progress.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 || c.Overlap < 0 || c.Overlap >= c.Size {
		return ErrInvalidChunkConfig
	}
	return nil
}

// ExtractionSettings holds entity extractor configuration.
type ExtractionSettings struct {
	// OverlapThreshold is the overlap ratio above which two same-type
	// candidates are treated as one occurrence.
	OverlapThreshold float64

	// MergeBoost is added to the confidence of entities both strategies found.
	MergeBoost float64

	// DateLayouts are Go time layouts tried in order.
	DateLayouts []string

	// DayFirst reads ambiguous numeric dates as day/month.
	DayFirst bool

	// StrictISIN drops ISIN candidates that fail the check digit.
	StrictISIN bool
}

// RetrievalSettings holds retrieval configuration.
type RetrievalSettings struct {
	// TopK is the number of chunks ranked per question.
	TopK int

	// MaxContextChars is the context budget in bytes.
	MaxContextChars int

	// HistoryTurns is how many previous turns expand the query.
	HistoryTurns int

	// FollowUpThreshold is the word-overlap ratio above which a question
	// counts as a follow-up of the previous one.
	FollowUpThreshold float64

	// MinSimilarity drops ranked chunks scoring below it.
	MinSimilarity float64
}

// SessionSettings holds conversation store configuration.
type SessionSettings struct {
	Backend   SessionBackend
	MaxTurns  int
	Path      string
	RedisAddr string
	TTL       time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	NER        NERSettings
	Provider   ProviderSettings
	Chunking   ChunkingSettings
	Extraction ExtractionSettings
	Retrieval  RetrievalSettings
	Session    SessionSettings
}

// DefaultDateLayouts returns the date layouts tried by default.
func DefaultDateLayouts() []string {
	return []string{
		"2006-01-02",
		"1/2/2006",
		"1/2/06",
		"2 January 2006",
		"2 Jan 2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2-Jan-2006",
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// Embedding and LLM are left unconfigured; extraction works without them.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			BatchSize: 16,
			Workers:   4,
			Timeout:   30 * time.Second,
		},
		LLM: LLMSettings{
			MaxTokens: 512,
			Timeout:   60 * time.Second,
		},
		NER: NERSettings{
			Provider: NERProviderLexicon,
			Model:    "dslim/bert-base-NER",
		},
		Provider: ProviderSettings{
			MaxRetries:        3,
			BaseDelay:         500 * time.Millisecond,
			MaxDelay:          8 * time.Second,
			RequestsPerSecond: 5,
		},
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 150,
		},
		Extraction: ExtractionSettings{
			OverlapThreshold: 0.5,
			MergeBoost:       0.05,
			DateLayouts:      DefaultDateLayouts(),
			StrictISIN:       false,
		},
		Retrieval: RetrievalSettings{
			TopK:              6,
			MaxContextChars:   6000,
			HistoryTurns:      2,
			FollowUpThreshold: 0.5,
		},
		Session: SessionSettings{
			Backend:  SessionBackendMemory,
			MaxTurns: 20,
			TTL:      time.Hour,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
