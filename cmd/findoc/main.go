// Command findoc extracts financial entities from documents and answers
// questions about them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/findoc/internal/adapters/driven/ai"
	"github.com/custodia-labs/findoc/internal/adapters/driven/config/file"
	"github.com/custodia-labs/findoc/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/findoc/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/findoc/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/findoc/internal/adapters/driven/vector"
	"github.com/custodia-labs/findoc/internal/adapters/driving/cli"
	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/core/services"
	"github.com/custodia-labs/findoc/internal/extractors/pattern"
	"github.com/custodia-labs/findoc/internal/extractors/statistical"
	"github.com/custodia-labs/findoc/internal/logger"
	"github.com/custodia-labs/findoc/internal/normalisers"
	"github.com/custodia-labs/findoc/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// closers runs cleanup functions in reverse order of registration.
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closers) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	var cleanup closers

	configDir, configStore, err := openConfig(opts)
	if err != nil {
		return nil, err
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsService}, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	providers := ai.Init(ctx, settings)
	cleanup.add(func() error {
		providers.Close()
		return nil
	})

	recognisers := []driven.Recogniser{pattern.NewFromSettings(settings.Extraction)}
	if providers.NERModel != nil {
		recognisers = append(recognisers, statistical.NewFromSettings(providers.NERModel, settings.Extraction))
	}
	extractor := services.NewExtractionService(settings.Extraction, recognisers...)

	pipeline, err := postprocessors.NewChunkingPipeline(settings.Chunking)
	if err != nil {
		return nil, fmt.Errorf("chunking: %w", err)
	}

	sessions, err := openSessions(ctx, settings.Session, configDir, opts.Ephemeral, &cleanup)
	if err != nil {
		_ = cleanup.close()
		return nil, err
	}

	vectors := vector.New()
	cleanup.add(vectors.Close)

	docStore := memory.NewDocumentStore()
	index := services.NewEmbeddingIndex(providers.EmbeddingService, vectors, settings.Embedding)
	conv := services.NewConversationState(sessions, settings.Session.MaxTurns)
	answers := services.NewAnswerGenerator(providers.LLMService, settings.LLM)
	if !opts.Ephemeral {
		prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"), services.DefaultPrompts())
		if err != nil {
			_ = cleanup.close()
			return nil, fmt.Errorf("prompts: %w", err)
		}
		answers.SetPromptStore(prompts)
	}

	documents := services.NewDocumentService(
		normalisers.NewDefaultRegistry(), extractor, pipeline, docStore, index, conv)
	ask := services.NewAskService(
		docStore, services.NewRetrievalEngine(index, docStore, settings.Retrieval), answers, conv)

	logger.Debug("Bootstrap complete: embedding=%t llm=%t ner=%t sessions=%s",
		providers.EmbeddingService != nil, providers.LLMService != nil,
		providers.NERModel != nil, settings.Session.Backend)

	return &cli.Services{
		Settings:   settingsService,
		Documents:  documents,
		Ask:        ask,
		Extensions: normalisers.Extensions(),
		Close:      cleanup.close,
	}, nil
}

// openConfig picks the settings store. Ephemeral runs never touch disk.
func openConfig(opts cli.Options) (string, driven.ConfigStore, error) {
	dir := opts.ConfigDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return "", nil, fmt.Errorf("locating config directory: %w", err)
		}
		dir = d
	}
	if opts.Ephemeral {
		return dir, memory.NewConfigStore(), nil
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return "", nil, fmt.Errorf("opening config: %w", err)
	}
	return dir, store, nil
}

// openSessions builds the configured conversation store.
func openSessions(
	ctx context.Context, cfg domain.SessionSettings, configDir string, ephemeral bool, cleanup *closers,
) (driven.SessionStore, error) {
	backend := cfg.Backend
	if ephemeral && backend == domain.SessionBackendSQLite {
		backend = domain.SessionBackendMemory
	}

	switch backend {
	case domain.SessionBackendSQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(configDir, "sessions.db")
		}
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, fmt.Errorf("opening session database: %w", err)
		}
		cleanup.add(store.Close)
		return store.SessionStore(), nil
	case domain.SessionBackendRedis:
		store, err := redis.New(ctx, redis.Config{Addr: cfg.RedisAddr, TTL: cfg.TTL})
		if err != nil {
			return nil, fmt.Errorf("connecting session store: %w", err)
		}
		cleanup.add(store.Close)
		return store, nil
	default:
		return memory.NewSessionStore(), nil
	}
}
