package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/core/ports/driving"
	"github.com/custodia-labs/findoc/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AskService answers questions about a document within a session.
type AskService struct {
	docs      driven.DocumentStore
	retrieval *RetrievalEngine
	answers   *AnswerGenerator
	conv      *ConversationState
}

// NewAskService creates an ask service.
func NewAskService(
	docs driven.DocumentStore,
	retrieval *RetrievalEngine,
	answers *AnswerGenerator,
	conv *ConversationState,
) *AskService {
	return &AskService{
		docs:      docs,
		retrieval: retrieval,
		answers:   answers,
		conv:      conv,
	}
}

// Ask retrieves context for the question, generates an answer and records
// the exchange. When req.SessionID is empty a new session is created, but
// only once an answer has been generated, so a failed ask leaves no session
// behind.
func (s *AskService) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error) {
	logger.Section("Ask")
	question := strings.TrimSpace(req.Question)
	if req.DocumentID == "" || question == "" {
		return nil, fmt.Errorf("ask: %w: document id and question are required", domain.ErrInvalidInput)
	}
	if !s.retrieval.index.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if !s.answers.Available() {
		return nil, domain.ErrLLMUnavailable
	}

	if _, err := s.docs.GetDocument(ctx, req.DocumentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDocument, req.DocumentID)
		}
		return nil, err
	}

	session, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Debug("Session %q, %d prior turns", session.ID, len(session.Turns))

	chunks, err := s.retrieval.Retrieve(ctx, session, question, 0)
	if err != nil {
		return nil, err
	}

	answer, err := s.answers.Generate(ctx, chunks, question)
	if err != nil {
		return nil, err
	}

	retrieved := make([]string, len(chunks))
	for i, sc := range chunks {
		retrieved[i] = sc.Chunk.ID
	}
	turn := domain.Turn{
		Question:          question,
		RetrievedChunkIDs: retrieved,
		Answer:            answer.Text,
		CitedChunkIDs:     answer.CitedChunkIDs,
	}
	created := session.ID == ""
	if created {
		if session, err = s.conv.CreateSession(ctx, req.DocumentID); err != nil {
			return nil, err
		}
	}
	if err := s.conv.AppendTurn(ctx, session.ID, turn); err != nil {
		if created {
			if derr := s.conv.Delete(ctx, session.ID); derr != nil {
				logger.Warn("Failed to remove session %s: %v", session.ID, derr)
			}
		}
		return nil, err
	}

	cited := answer.CitedChunkIDs
	if cited == nil {
		cited = []string{}
	}
	return &domain.AskResult{
		Answer:        answer.Text,
		CitedChunkIDs: cited,
		SessionID:     session.ID,
		Insufficient:  answer.Insufficient,
	}, nil
}

// session resolves the session for a request. Without a session id it
// returns an unsaved session with no ID and no turns.
func (s *AskService) session(ctx context.Context, req domain.AskRequest) (*domain.Session, error) {
	if req.SessionID == "" {
		return &domain.Session{DocumentID: req.DocumentID}, nil
	}
	session, err := s.conv.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.DocumentID != req.DocumentID {
		return nil, fmt.Errorf("%w: session %s is bound to %s",
			domain.ErrSessionDocumentMismatch, session.ID, session.DocumentID)
	}
	return session, nil
}

// History returns up to lastN recent turns of a session.
func (s *AskService) History(ctx context.Context, sessionID string, lastN int) ([]domain.Turn, error) {
	return s.conv.History(ctx, sessionID, lastN)
}
