// Package huggingface provides a NER model adapter for the Hugging Face
// inference API (token-classification pipelines).
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/findoc/internal/adapters/driven/apierr"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// Ensure NERModel implements the interface.
var _ driven.NERModel = (*NERModel)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://router.huggingface.co/hf-inference"
	DefaultModel     = "dslim/bert-base-NER"
	DefaultTimeout   = 30 * time.Second
	DefaultWindowLen = 1500
)

var class = apierr.NER("huggingface")

// Config holds configuration for the Hugging Face NER model.
type Config struct {
	// APIKey is the Hugging Face access token.
	APIKey string

	// BaseURL is the inference endpoint root.
	BaseURL string

	// Model is the token-classification model id.
	Model string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// WindowLen is the maximum number of bytes sent per request.
	WindowLen int
}

// NERModel tags entities through the inference API.
type NERModel struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	windowLen int
}

type nerRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters nerParameters `json:"parameters"`
}

type nerParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

// nerEntity is one aggregated entity. Offsets count characters, not bytes.
type nerEntity struct {
	EntityGroup string  `json:"entity_group"`
	Score       float64 `json:"score"`
	Word        string  `json:"word"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
}

// NewNERModel creates a new Hugging Face NER model.
func NewNERModel(cfg Config) *NERModel {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.WindowLen <= 0 {
		cfg.WindowLen = DefaultWindowLen
	}

	return &NERModel{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		windowLen: cfg.WindowLen,
	}
}

// Recognise tags text window by window and returns byte-offset spans.
func (m *NERModel) Recognise(ctx context.Context, text string) ([]driven.NERSpan, error) {
	var spans []driven.NERSpan
	for _, w := range windows(text, m.windowLen) {
		entities, err := m.tag(ctx, text[w.start:w.end])
		if err != nil {
			return nil, err
		}
		offsets := runeOffsets(text[w.start:w.end])
		for _, e := range entities {
			if e.Start < 0 || e.End > len(offsets)-1 || e.Start >= e.End {
				continue
			}
			spans = append(spans, driven.NERSpan{
				Label: e.EntityGroup,
				Start: w.start + offsets[e.Start],
				End:   w.start + offsets[e.End],
				Score: e.Score,
			})
		}
	}
	return spans, nil
}

func (m *NERModel) tag(ctx context.Context, input string) ([]nerEntity, error) {
	jsonBody, err := json.Marshal(nerRequest{
		Inputs:     input,
		Parameters: nerParameters{AggregationStrategy: "simple"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/models/"+m.model, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, class.Transport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, class.Transport(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, class.Status(resp.StatusCode, body)
	}

	var entities []nerEntity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, class.Failed("decode response: %v", err)
	}
	return entities, nil
}

// ModelName returns the model id.
func (m *NERModel) ModelName() string {
	return m.model
}

type window struct{ start, end int }

// windows splits text into byte ranges of at most size bytes, cutting at
// whitespace where possible and never inside a rune.
func windows(text string, size int) []window {
	var out []window
	for start := 0; start < len(text); {
		end := start + size
		if end >= len(text) {
			out = append(out, window{start, len(text)})
			break
		}
		if i := strings.LastIndexAny(text[start:end], " \n"); i > 0 {
			end = start + i + 1
		}
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			end = start + size
			for end < len(text) && !utf8.RuneStart(text[end]) {
				end++
			}
		}
		out = append(out, window{start, end})
		start = end
	}
	return out
}

// runeOffsets maps character index to byte offset, with a final entry for
// the end of the string.
func runeOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}
