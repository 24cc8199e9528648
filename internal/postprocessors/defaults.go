package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/postprocessors/chunker"
	"github.com/custodia-labs/findoc/internal/postprocessors/locator"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("locator", func(map[string]any) (driven.PostProcessor, error) {
		return locator.New(), nil
	})
}

// NewChunkingPipeline builds the chunker followed by the page locator.
// Returns domain.ErrInvalidChunkConfig for unusable chunk settings.
func NewChunkingPipeline(cfg domain.ChunkingSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	c, err := r.Build("chunker", map[string]any{
		"chunk_size": cfg.Size,
		"overlap":    cfg.Overlap,
	})
	if err != nil {
		return nil, err
	}
	l, err := r.Build("locator", nil)
	if err != nil {
		return nil, err
	}
	return NewPipeline(c, l), nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Bytes per chunk (default: 1000)
//   - overlap (int): Overlapping bytes between chunks (default: 150)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	p, err := chunker.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build chunker: %w", err)
	}
	return p, nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
