package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
	"github.com/custodia-labs/findoc/internal/logger"
)

// ConversationState manages sessions and their turn history.
// Appends to one session are serialised; different sessions never share a lock.
type ConversationState struct {
	store    driven.SessionStore
	maxTurns int
	now      func() time.Time

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	owners map[string]string // session id -> document id, for locks in use
}

// NewConversationState creates a conversation state over store.
// A negative maxTurns keeps every turn; zero selects the default.
func NewConversationState(store driven.SessionStore, maxTurns int) *ConversationState {
	switch {
	case maxTurns == 0:
		maxTurns = domain.DefaultAppSettings().Session.MaxTurns
	case maxTurns < 0:
		maxTurns = 0
	}
	return &ConversationState{
		store:    store,
		maxTurns: maxTurns,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
		owners:   make(map[string]string),
	}
}

// MaxTurns returns how many turns a session retains, zero meaning all.
func (c *ConversationState) MaxTurns() int {
	return c.maxTurns
}

// CreateSession starts an empty session bound to documentID.
func (c *ConversationState) CreateSession(ctx context.Context, documentID string) (*domain.Session, error) {
	if documentID == "" {
		return nil, fmt.Errorf("create session: %w: empty document id", domain.ErrInvalidInput)
	}
	session := &domain.Session{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		CreatedAt:  c.now().UTC(),
		Turns:      []domain.Turn{},
	}
	if err := c.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logger.Debug("Session %s created for document %s", session.ID, documentID)
	return session, nil
}

// Get returns a session with its retained turns.
func (c *ConversationState) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return c.store.Get(ctx, sessionID)
}

// AppendTurn records a completed exchange. A zero timestamp is set to now;
// a timestamp earlier than the last turn's is rejected.
func (c *ConversationState) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	lock := c.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSession) {
			c.forget(sessionID)
		}
		return err
	}
	c.bind(sessionID, session.DocumentID)
	if turn.Timestamp.IsZero() {
		turn.Timestamp = c.now().UTC()
	}
	if last := session.LastTurn(); last != nil && turn.Timestamp.Before(last.Timestamp) {
		return fmt.Errorf("append turn: %w: timestamp %s precedes last turn at %s",
			domain.ErrInvalidInput, turn.Timestamp.Format(time.RFC3339Nano), last.Timestamp.Format(time.RFC3339Nano))
	}

	turn.RetrievedChunkIDs = cloneIDs(turn.RetrievedChunkIDs)
	turn.CitedChunkIDs = cloneIDs(turn.CitedChunkIDs)
	if err := c.store.AppendTurn(ctx, sessionID, turn, c.maxTurns); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	if c.maxTurns > 0 && len(session.Turns)+1 > c.maxTurns {
		logger.Debug("Session %s evicted %d turns", sessionID, len(session.Turns)+1-c.maxTurns)
	}
	return nil
}

// History returns up to lastN of the most recent turns, oldest first.
// A non-positive lastN returns every retained turn.
func (c *ConversationState) History(ctx context.Context, sessionID string, lastN int) ([]domain.Turn, error) {
	session, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if lastN <= 0 {
		lastN = len(session.Turns)
	}
	turns := session.Recent(lastN)
	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns, nil
}

// Delete removes one session.
func (c *ConversationState) Delete(ctx context.Context, sessionID string) error {
	c.forget(sessionID)
	return c.store.Delete(ctx, sessionID)
}

// DeleteByDocument removes every session bound to documentID together with
// their append locks.
func (c *ConversationState) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := c.store.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, owner := range c.owners {
		if owner == documentID {
			delete(c.owners, id)
			delete(c.locks, id)
		}
	}
	return nil
}

func (c *ConversationState) bind(sessionID, documentID string) {
	c.mu.Lock()
	c.owners[sessionID] = documentID
	c.mu.Unlock()
}

func (c *ConversationState) forget(sessionID string) {
	c.mu.Lock()
	delete(c.locks, sessionID)
	delete(c.owners, sessionID)
	c.mu.Unlock()
}

func (c *ConversationState) lockFor(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[sessionID] = l
	}
	return l
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
