package driven

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// SessionStore persists conversation sessions.
// Implementations serialise appends per session; appends to different
// sessions must not contend.
type SessionStore interface {
	// Create stores a new, empty session.
	Create(ctx context.Context, session *domain.Session) error

	// Get returns a session with all retained turns.
	// Returns domain.ErrUnknownSession if the session does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// AppendTurn adds a turn and evicts the oldest turns beyond maxTurns.
	// A maxTurns of zero keeps every turn.
	AppendTurn(ctx context.Context, id string, turn domain.Turn, maxTurns int) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// DeleteByDocument removes every session bound to a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Close releases resources.
	Close() error
}
