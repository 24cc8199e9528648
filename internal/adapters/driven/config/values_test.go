package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValues_TypedAccess(t *testing.T) {
	v := Values{
		"llm.model":               "gpt-4o-mini",
		"llm.max_tokens":          int64(512),
		"embedding.workers":       4,
		"extraction.day_first":    true,
		"extraction.date_layouts": []any{"2006-01-02", 7, "2 Jan 2006"},
	}

	assert.Equal(t, "gpt-4o-mini", v.String("llm.model"))
	assert.Equal(t, 512, v.Int("llm.max_tokens"))
	assert.Equal(t, 4, v.Int("embedding.workers"))
	assert.True(t, v.Bool("extraction.day_first"))
	assert.Equal(t, []string{"2006-01-02", "2 Jan 2006"}, v.StringSlice("extraction.date_layouts"))

	assert.Empty(t, v.String("llm.max_tokens"))
	assert.Zero(t, v.Int("llm.model"))
	assert.False(t, v.Bool("missing"))
	assert.Nil(t, v.StringSlice("llm.model"))
}

func TestFlattenNest_RoundTrip(t *testing.T) {
	nested := map[string]any{
		"llm": map[string]any{
			"model":   "llama3.2",
			"timeout": "1m0s",
		},
		"session": map[string]any{"backend": "sqlite"},
	}

	flat := Flatten(nested)
	assert.Equal(t, Values{
		"llm.model":       "llama3.2",
		"llm.timeout":     "1m0s",
		"session.backend": "sqlite",
	}, flat)
	assert.Equal(t, nested, Nest(flat))
}

func TestNest_ScalarTableCollision(t *testing.T) {
	nested := Nest(Values{"llm": "openai", "llm.model": "gpt-4o-mini"})

	assert.Equal(t, "openai", nested["llm"])
	assert.Equal(t, "gpt-4o-mini", nested["llm.model"])
}

func TestValues_Keys(t *testing.T) {
	assert.Equal(t, []string{"a", "b.c", "b.d"}, Values{"b.d": 1, "a": 2, "b.c": 3}.Keys())
}
