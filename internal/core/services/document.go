package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/core/ports/driving"
	"github.com/custodia-labs/findoc/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService ingests uploads and serves what was extracted from them.
type DocumentService struct {
	loader    driven.NormaliserRegistry
	extractor *ExtractionService
	chunker   driven.PostProcessorPipeline
	docStore  driven.DocumentStore
	index     *EmbeddingIndex
	conv      *ConversationState
	workers   int
}

// NewDocumentService creates a new document service.
// index and conv may be nil; uploads are then never indexed.
func NewDocumentService(
	loader driven.NormaliserRegistry,
	extractor *ExtractionService,
	chunker driven.PostProcessorPipeline,
	docStore driven.DocumentStore,
	index *EmbeddingIndex,
	conv *ConversationState,
) *DocumentService {
	return &DocumentService{
		loader:    loader,
		extractor: extractor,
		chunker:   chunker,
		docStore:  docStore,
		index:     index,
		conv:      conv,
		workers:   runtime.NumCPU(),
	}
}

// SetUploadWorkers bounds how many documents UploadMany ingests at once.
func (s *DocumentService) SetUploadWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// Upload loads one document, then extracts entities and chunks+indexes it
// concurrently. Indexing failures leave Indexed false without failing.
func (s *DocumentService) Upload(ctx context.Context, raw *domain.RawDocument) (*domain.UploadResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("upload: %w", domain.ErrInvalidInput)
	}
	logger.Section("Upload")
	start := time.Now()

	loaded, err := s.loader.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", raw.Name, err)
	}
	doc := loaded.Document
	logger.Debug("Loaded %s as %s: %d bytes, %d mappings", doc.ID, doc.Format, len(doc.Content), len(doc.Mappings))

	if err := s.docStore.SaveDocument(ctx, &doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	var (
		wg         sync.WaitGroup
		entities   []domain.ExtractedEntity
		extractErr error
		chunks     []domain.Chunk
		chunkErr   error
		indexed    bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		entities, extractErr = s.extractor.Extract(ctx, &doc)
	}()
	go func() {
		defer wg.Done()
		chunks, chunkErr = s.chunker.Process(ctx, &doc)
		if chunkErr != nil {
			return
		}
		indexed = s.indexChunks(ctx, doc.ID, chunks)
	}()
	wg.Wait()

	if err := errors.Join(extractErr, chunkErr); err != nil {
		s.rollback(doc.ID)
		return nil, fmt.Errorf("ingest %s: %w", doc.ID, err)
	}

	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		s.rollback(doc.ID)
		return nil, fmt.Errorf("save chunks: %w", err)
	}
	if err := s.docStore.SaveEntities(ctx, doc.ID, entities); err != nil {
		s.rollback(doc.ID)
		return nil, fmt.Errorf("save entities: %w", err)
	}

	if entities == nil {
		entities = []domain.ExtractedEntity{}
	}
	logger.Info("Uploaded %s in %s: %d entities, %d chunks, indexed=%t",
		doc.ID, time.Since(start).Round(time.Millisecond), len(entities), len(chunks), indexed)

	return &domain.UploadResult{
		DocumentID: doc.ID,
		Name:       doc.Name,
		Format:     doc.Format,
		Entities:   entities,
		ChunkCount: len(chunks),
		Indexed:    indexed,
	}, nil
}

func (s *DocumentService) indexChunks(ctx context.Context, documentID string, chunks []domain.Chunk) bool {
	if s.index == nil || !s.index.Available() {
		logger.Debug("Embedding unavailable, %s not indexed", documentID)
		return false
	}
	if err := s.index.Index(ctx, documentID, chunks); err != nil {
		logger.Warn("Document %s not indexed: %v", documentID, err)
		return false
	}
	return true
}

// rollback discards a partially ingested document.
func (s *DocumentService) rollback(documentID string) {
	ctx := context.Background()
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Rollback of %s: %v", documentID, err)
	}
	if s.index != nil {
		if err := s.index.Drop(ctx, documentID); err != nil {
			logger.Warn("Dropping vectors of %s: %v", documentID, err)
		}
	}
}

// UploadMany ingests documents on a bounded worker pool.
// Results and errors are index-aligned with raws.
func (s *DocumentService) UploadMany(
	ctx context.Context, raws []*domain.RawDocument,
) ([]*domain.UploadResult, []error) {
	results := make([]*domain.UploadResult, len(raws))
	errs := make([]error, len(raws))
	if len(raws) == 0 {
		return results, errs
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(s.workers, len(raws)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = s.Upload(ctx, raws[i])
			}
		}()
	}
	for i := range raws {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results, errs
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDocument, documentID)
	}
	return doc, err
}

// Entities returns the entities extracted from a document.
func (s *DocumentService) Entities(ctx context.Context, documentID string) ([]domain.ExtractedEntity, error) {
	entities, err := s.docStore.GetEntities(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDocument, documentID)
	}
	return entities, err
}

// List returns all loaded documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Discard drops a document together with its chunks, vectors and sessions.
func (s *DocumentService) Discard(ctx context.Context, documentID string) error {
	if _, err := s.Get(ctx, documentID); err != nil {
		return err
	}
	if s.conv != nil {
		if err := s.conv.DeleteByDocument(ctx, documentID); err != nil {
			return fmt.Errorf("discard sessions: %w", err)
		}
	}
	if s.index != nil {
		if err := s.index.Drop(ctx, documentID); err != nil {
			return fmt.Errorf("discard vectors: %w", err)
		}
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("discard document: %w", err)
	}
	logger.Debug("Discarded %s", documentID)
	return nil
}
