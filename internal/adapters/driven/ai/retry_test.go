package ai

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

func fastRetrier(retries int) *Retrier {
	return NewRetrier(domain.ProviderSettings{
		MaxRetries: retries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   4 * time.Millisecond,
	})
}

func TestRetrier_Delay(t *testing.T) {
	r := NewRetrier(domain.ProviderSettings{BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second})

	assert.Equal(t, 500*time.Millisecond, r.Delay(0))
	assert.Equal(t, time.Second, r.Delay(1))
	assert.Equal(t, 4*time.Second, r.Delay(3))
	assert.Equal(t, 8*time.Second, r.Delay(4))
	assert.Equal(t, 8*time.Second, r.Delay(20))
}

func TestRetrier_RetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int32
	}{
		{"rate limited", domain.ErrRateLimited, 3},
		{"model timeout", domain.ErrLanguageModelTimeout, 3},
		{"provider timeout", domain.ErrProviderTimeout, 3},
		{"auth", domain.ErrAuthInvalid, 1},
		{"malformed", domain.ErrMalformedRequest, 1},
		{"generic", domain.ErrLanguageModel, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			err := fastRetrier(2).Do(context.Background(), "test", func(context.Context) error {
				calls.Add(1)
				return fmt.Errorf("provider: %w", tt.err)
			})
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestRetrier_SucceedsAfterTransientFailure(t *testing.T) {
	var calls int
	err := fastRetrier(3).Do(context.Background(), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return domain.ErrRateLimited
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_StopsWhenContextEnds(t *testing.T) {
	r := NewRetrier(domain.ProviderSettings{MaxRetries: 10, BaseDelay: time.Hour, MaxDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var calls int
	start := time.Now()
	err := r.Do(ctx, "test", func(context.Context) error {
		calls++
		return domain.ErrProviderTimeout
	})
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiter_PauseHoldsCallers(t *testing.T) {
	l := NewRateLimiter(0)
	l.Pause(30 * time.Millisecond)
	l.Pause(time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	l.Pause(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestRateLimiter_Throttles(t *testing.T) {
	l := NewRateLimiter(50)
	ctx := context.Background()

	start := time.Now()
	for range 60 {
		require.NoError(t, l.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

type flakyEmbedder struct {
	driven.EmbeddingService
	failures int
	calls    int
}

func (f *flakyEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, domain.ErrRateLimited
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type flakyLLM struct {
	driven.LLMService
	errs  []error
	calls int
}

func (f *flakyLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return "", f.errs[f.calls-1]
	}
	return "answer", nil
}

func (f *flakyLLM) Generate(ctx context.Context, _ string, opts driven.GenerateOptions) (string, error) {
	return f.Chat(ctx, nil, driven.ChatOptions{MaxTokens: opts.MaxTokens})
}

func TestWithEmbeddingRetry(t *testing.T) {
	inner := &flakyEmbedder{failures: 2}
	svc := WithEmbeddingRetry(inner, fastRetrier(3))

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 3, inner.calls)

	inner = &flakyEmbedder{failures: 5}
	_, err = WithEmbeddingRetry(inner, fastRetrier(1)).Embed(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 2, inner.calls)

	assert.Nil(t, WithEmbeddingRetry(nil, fastRetrier(1)))
}

func TestWithLLMRetry(t *testing.T) {
	inner := &flakyLLM{errs: []error{domain.ErrLanguageModelTimeout}}
	svc := WithLLMRetry(inner, fastRetrier(2))

	out, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	assert.Equal(t, 2, inner.calls)

	inner = &flakyLLM{errs: []error{domain.ErrAuthInvalid}}
	_, err = WithLLMRetry(inner, fastRetrier(2)).Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	assert.Equal(t, 1, inner.calls)

	assert.Nil(t, WithLLMRetry(nil, fastRetrier(1)))
}
