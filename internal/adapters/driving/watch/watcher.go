// Package watch ingests documents dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driving"
	"github.com/custodia-labs/findoc/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// Event reports what happened to one watched file.
type Event struct {
	Path       string
	DocumentID string

	// Result is set after a successful upload.
	Result *domain.UploadResult

	// Removed is set when the file's document was discarded.
	Removed bool

	Err error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions limits ingestion to files with these extensions.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		for _, e := range exts {
			w.exts[strings.ToLower(e)] = true
		}
	}
}

// WithHandler receives every Event. Calls are serialised.
func WithHandler(fn func(Event)) Option {
	return func(w *Watcher) {
		w.handler = fn
	}
}

// action is what a filesystem event asks the watcher to do.
type action int

const (
	actionIngest action = iota + 1
	actionRemove
)

// Watcher keeps the documents of one directory loaded.
// Each file maps to at most one live document; rewriting a file replaces it.
type Watcher struct {
	dir      string
	docs     driving.DocumentService
	debounce time.Duration
	exts     map[string]bool
	handler  func(Event)

	mu     sync.Mutex
	byPath map[string]string
	timers map[string]*time.Timer

	// ingestMu serialises uploads, discards and handler calls.
	ingestMu sync.Mutex
	wg       sync.WaitGroup
}

// New creates a watcher for dir.
func New(dir string, docs driving.DocumentService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		docs:     docs,
		debounce: DefaultDebounce,
		exts:     make(map[string]bool),
		handler:  func(Event) {},
		byPath:   make(map[string]string),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run ingests the files already in the directory, then follows changes
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching %s", w.dir)

	if err := w.scan(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.stop()
				return nil
			}
			w.dispatch(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.stop()
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// scan uploads every eligible file currently in the directory.
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.dir, err)
	}

	var paths []string
	var raws []*domain.RawDocument
	for _, entry := range entries {
		path := filepath.Join(w.dir, entry.Name())
		if entry.IsDir() || !w.eligible(path) {
			continue
		}
		raw, err := readRaw(path)
		if err != nil {
			w.emit(Event{Path: path, Err: err})
			continue
		}
		paths = append(paths, path)
		raws = append(raws, raw)
	}
	if len(raws) == 0 {
		return nil
	}

	results, errs := w.docs.UploadMany(ctx, raws)
	for i, path := range paths {
		ev := Event{Path: path, Result: results[i], Err: errs[i]}
		if errs[i] == nil {
			ev.DocumentID = results[i].DocumentID
			w.remember(path, ev.DocumentID)
		}
		w.emit(ev)
	}
	return nil
}

// handleFsEvent classifies a filesystem event. The bool is false for
// events the watcher ignores.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (action, bool) {
	if !w.eligible(event.Name) {
		return 0, false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return actionRemove, true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return 0, false
		}
		return actionIngest, true
	}
	return 0, false
}

func (w *Watcher) dispatch(ctx context.Context, event fsnotify.Event) {
	act, ok := w.handleFsEvent(event)
	if !ok {
		return
	}
	path := event.Name

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		// A stopped timer never runs, so its slot is released here.
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}

	w.wg.Add(1)
	if act == actionRemove {
		go func() {
			defer w.wg.Done()
			w.remove(ctx, path)
		}()
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
	w.timers[path] = timer
}

// stop cancels pending ingests and waits for running ones.
func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	w.ingestMu.Lock()
	defer w.ingestMu.Unlock()

	raw, err := readRaw(path)
	if err != nil {
		w.emitLocked(Event{Path: path, Err: err})
		return
	}
	if old := w.forget(path); old != "" {
		if err := w.docs.Discard(ctx, old); err != nil {
			logger.Warn("Discarding previous version of %s: %v", path, err)
		}
	}

	res, err := w.docs.Upload(ctx, raw)
	ev := Event{Path: path, Result: res, Err: err}
	if err == nil {
		ev.DocumentID = res.DocumentID
		w.remember(path, res.DocumentID)
	}
	w.emitLocked(ev)
}

func (w *Watcher) remove(ctx context.Context, path string) {
	w.ingestMu.Lock()
	defer w.ingestMu.Unlock()

	id := w.forget(path)
	if id == "" {
		return
	}
	err := w.docs.Discard(ctx, id)
	w.emitLocked(Event{Path: path, DocumentID: id, Removed: err == nil, Err: err})
}

func (w *Watcher) remember(path, id string) {
	w.mu.Lock()
	w.byPath[path] = id
	w.mu.Unlock()
}

func (w *Watcher) forget(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.byPath[path]
	delete(w.byPath, path)
	return id
}

// DocumentID returns the live document for a watched path.
func (w *Watcher) DocumentID(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.byPath[path]
	return id, ok
}

func (w *Watcher) emit(ev Event) {
	w.ingestMu.Lock()
	defer w.ingestMu.Unlock()
	w.emitLocked(ev)
}

func (w *Watcher) emitLocked(ev Event) {
	if ev.Err != nil {
		logger.Warn("%s: %v", ev.Path, ev.Err)
	}
	w.handler(ev)
}

// eligible reports whether path is a visible file with a watched extension.
func (w *Watcher) eligible(path string) bool {
	if isHidden(filepath.Base(path)) {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

// isHidden matches dotfiles and editor temporaries.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, "~$") ||
		slices.Contains([]string{".swp", ".tmp", ".part"}, filepath.Ext(name))
}

func readRaw(path string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return &domain.RawDocument{Name: filepath.Base(path), Content: content}, nil
}
