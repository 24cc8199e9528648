package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

func newService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "qwen2.5"})
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestChat(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, 128, req.Options.NumPredict)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"USD 10,000,000"}}`))
	})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "Notional?"},
		{Role: "assistant", Content: "Checking."},
	}, driven.ChatOptions{MaxTokens: 128})
	require.NoError(t, err)
	assert.Equal(t, "USD 10,000,000", out)
}

func TestGenerate(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Summarise", req.Prompt)
		assert.Equal(t, []string{"END"}, req.Options.Stop)
		_, _ = w.Write([]byte(`{"response":"done"}`))
	})

	out, err := svc.Generate(context.Background(), "Summarise", driven.GenerateOptions{StopWords: []string{"END"}})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}

func TestInvalidInput(t *testing.T) {
	svc := newService(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := svc.Generate(context.Background(), " ", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChat_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusServiceUnavailable, domain.ErrRateLimited},
		{http.StatusNotFound, domain.ErrLanguageModel},
		{http.StatusBadRequest, domain.ErrMalformedRequest},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "q"}}, driven.ChatOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPing(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
