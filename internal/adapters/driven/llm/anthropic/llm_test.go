package anthropic

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
	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	svc, err := NewLLMService(Config{APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestChat_SystemMessagesMoveToSystemField(t *testing.T) {
	var got messagesRequest
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Bank "},{"type":"text","text":"XYZ"}],"stop_reason":"end_turn"}`))
	})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "Rule one."},
		{Role: "system", Content: "Rule two."},
		{Role: "user", Content: "Who is Party A?"},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Bank XYZ", out)

	assert.Equal(t, "Rule one.\n\nRule two.", got.System)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestChat_OnlySystemMessages(t *testing.T) {
	svc := newService(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "system", Content: "x"}}, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGenerate(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 64, req.MaxTokens)
		assert.Equal(t, []string{"STOP"}, req.StopSeqs)
		assert.Empty(t, req.System)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"fine"}]}`))
	})

	out, err := svc.Generate(context.Background(), "hi", driven.GenerateOptions{MaxTokens: 64, StopWords: []string{"STOP"}})
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
}

func TestChat_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{529, domain.ErrRateLimited},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusRequestEntityTooLarge, domain.ErrMalformedRequest},
		{http.StatusInternalServerError, domain.ErrLanguageModel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"type":"error"}`))
			})
			_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "q"}}, driven.ChatOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPing(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	assert.NoError(t, svc.Ping(context.Background()))
}
