package driving

import (
	"context"

	"github.com/custodia-labs/findoc/internal/core/domain"
)

// AskService answers questions about uploaded documents.
type AskService interface {
	// Ask answers a question, creating a session when req.SessionID is empty.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error)

	// History returns up to lastN recent turns of a session.
	History(ctx context.Context, sessionID string, lastN int) ([]domain.Turn, error)
}
