package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Slices are copied on the way in and out so callers never share backing
// arrays with the store.
type DocumentStore struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	chunks     map[string][]domain.Chunk
	chunkIndex map[string]string
	entities   map[string][]domain.ExtractedEntity
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:  make(map[string]domain.Document),
		chunks:     make(map[string][]domain.Chunk),
		chunkIndex: make(map[string]string),
		entities:   make(map[string][]domain.ExtractedEntity),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks replaces the chunks of the owning document.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docID := chunks[0].DocumentID
	for _, c := range chunks {
		if c.DocumentID != docID {
			return domain.ErrInvalidInput
		}
	}

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].Position < stored[j].Position })

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chunks[docID] {
		delete(s.chunkIndex, c.ID)
	}
	s.chunks[docID] = stored
	for _, c := range stored {
		s.chunkIndex[c.ID] = docID
	}
	return nil
}

// SaveEntities replaces the extracted entities of a document.
func (s *DocumentStore) SaveEntities(_ context.Context, documentID string, entities []domain.ExtractedEntity) error {
	stored := make([]domain.ExtractedEntity, len(entities))
	copy(stored, entities)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[documentID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunks retrieves all chunks for a document in position order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docID, ok := s.chunkIndex[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, chunk := range s.chunks[docID] {
		if chunk.ID == id {
			return &chunk, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetEntities retrieves the extracted entities for a document.
func (s *DocumentStore) GetEntities(_ context.Context, documentID string) ([]domain.ExtractedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.documents[documentID]; !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.ExtractedEntity, len(s.entities[documentID]))
	copy(out, s.entities[documentID])
	return out, nil
}

// DeleteDocument removes a document with its chunks and entities.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chunks[id] {
		delete(s.chunkIndex, c.ID)
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	delete(s.entities, id)
	return nil
}

// ListDocuments returns all documents, oldest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		result = append(result, s.documents[id])
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].LoadedAt.Equal(result[j].LoadedAt) {
			return result[i].LoadedAt.Before(result[j].LoadedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
