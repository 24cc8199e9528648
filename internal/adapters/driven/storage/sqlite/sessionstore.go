package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Create stores a new session with any turns it already holds.
func (s *sessionStore) Create(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, document_id, created_at) VALUES (?, ?, ?)`,
		session.ID, session.DocumentID, session.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	for i, turn := range session.Turns {
		if err := insertTurn(ctx, tx, session.ID, i+1, turn); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get returns a session with its turns in order.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var (
		session   domain.Session
		createdAt int64
	)
	err := s.store.db.QueryRowContext(ctx,
		`SELECT id, document_id, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.DocumentID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUnknownSession
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	session.CreatedAt = time.Unix(0, createdAt).UTC()

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT question, retrieved_chunk_ids, answer, cited_chunk_ids, asked_at
		FROM turns WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	session.Turns = []domain.Turn{}
	for rows.Next() {
		var (
			turn             domain.Turn
			retrieved, cited string
			askedAt          int64
		)
		if err := rows.Scan(&turn.Question, &retrieved, &turn.Answer, &cited, &askedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := json.Unmarshal([]byte(retrieved), &turn.RetrievedChunkIDs); err != nil {
			return nil, fmt.Errorf("decoding retrieved ids: %w", err)
		}
		if err := json.Unmarshal([]byte(cited), &turn.CitedChunkIDs); err != nil {
			return nil, fmt.Errorf("decoding cited ids: %w", err)
		}
		turn.Timestamp = time.Unix(0, askedAt).UTC()
		session.Turns = append(session.Turns, turn)
	}
	return &session, rows.Err()
}

// AppendTurn adds a turn and evicts the oldest beyond maxTurns.
func (s *sessionStore) AppendTurn(ctx context.Context, id string, turn domain.Turn, maxTurns int) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var seq int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE((SELECT MAX(seq) FROM turns WHERE session_id = s.id), 0)
		FROM sessions s WHERE s.id = ?`, id).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUnknownSession
	}
	if err != nil {
		return fmt.Errorf("querying turn sequence: %w", err)
	}

	seq++
	if err := insertTurn(ctx, tx, id, seq, turn); err != nil {
		return err
	}
	if maxTurns > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM turns WHERE session_id = ? AND seq <= ?`, id, seq-maxTurns); err != nil {
			return fmt.Errorf("evicting turns: %w", err)
		}
	}
	return tx.Commit()
}

// Delete removes a session and its turns.
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteByDocument removes every session bound to documentID.
func (s *sessionStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx, `DELETE FROM sessions WHERE document_id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the database.
func (s *sessionStore) Close() error {
	return nil
}

func insertTurn(ctx context.Context, tx *sql.Tx, sessionID string, seq int, turn domain.Turn) error {
	retrieved, err := marshalIDs(turn.RetrievedChunkIDs)
	if err != nil {
		return err
	}
	cited, err := marshalIDs(turn.CitedChunkIDs)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO turns (session_id, seq, question, retrieved_chunk_ids, answer, cited_chunk_ids, asked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, seq, turn.Question, retrieved, turn.Answer, cited, turn.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

func marshalIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshalling ids: %w", err)
	}
	return string(b), nil
}
