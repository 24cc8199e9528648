package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// sessionEntry guards one session. Appends to different sessions take
// different locks.
type sessionEntry struct {
	mu      sync.Mutex
	session domain.Session
}

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
	}
}

// Create stores a new session.
func (s *SessionStore) Create(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &sessionEntry{session: copySession(*session)}
	return nil
}

// Get returns a copy of the session.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, domain.ErrUnknownSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := copySession(e.session)
	return &out, nil
}

// AppendTurn adds a turn and trims the history to maxTurns.
func (s *SessionStore) AppendTurn(_ context.Context, id string, turn domain.Turn, maxTurns int) error {
	e, ok := s.entry(id)
	if !ok {
		return domain.ErrUnknownSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Turns = append(e.session.Turns, turn)
	if maxTurns > 0 && len(e.session.Turns) > maxTurns {
		e.session.Turns = append([]domain.Turn(nil), e.session.Turns[len(e.session.Turns)-maxTurns:]...)
	}
	return nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteByDocument removes every session bound to documentID.
func (s *SessionStore) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		e.mu.Lock()
		match := e.session.DocumentID == documentID
		e.mu.Unlock()
		if match {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Close releases resources.
func (s *SessionStore) Close() error {
	return nil
}

func (s *SessionStore) entry(id string) (*sessionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}

func copySession(in domain.Session) domain.Session {
	out := in
	out.Turns = make([]domain.Turn, len(in.Turns))
	copy(out.Turns, in.Turns)
	return out
}
