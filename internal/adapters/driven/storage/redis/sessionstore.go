// Package redis stores conversation sessions in Redis so that several
// findoc processes can share them. Every key expires after the configured
// TTL, which is refreshed on each write.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

const (
	// DefaultTTL is how long an idle session survives.
	DefaultTTL = 24 * time.Hour

	// DefaultPrefix namespaces every key written by the store.
	DefaultPrefix = "findoc:"
)

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// SessionStore implements driven.SessionStore on a Redis server.
type SessionStore struct {
	client *redisv9.Client
	ttl    time.Duration
	prefix string
}

var _ driven.SessionStore = (*SessionStore)(nil)

// sessionMeta is the session record without its turns.
type sessionMeta struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*SessionStore, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	return NewFromClient(client, cfg.TTL, cfg.Prefix), nil
}

// NewFromClient wraps an existing client. A non-positive ttl selects
// DefaultTTL and an empty prefix selects DefaultPrefix.
func NewFromClient(client *redisv9.Client, ttl time.Duration, prefix string) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SessionStore{client: client, ttl: ttl, prefix: prefix}
}

// Create stores a new session with any turns it already holds.
func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}

	payload, err := json.Marshal(sessionMeta{
		ID:         session.ID,
		DocumentID: session.DocumentID,
		CreatedAt:  session.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	turns, err := encodeTurns(session.Turns)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Del(ctx, s.turnsKey(session.ID))
		pipe.Set(ctx, s.sessionKey(session.ID), payload, s.ttl)
		if len(turns) > 0 {
			pipe.RPush(ctx, s.turnsKey(session.ID), turns...)
			pipe.Expire(ctx, s.turnsKey(session.ID), s.ttl)
		}
		pipe.SAdd(ctx, s.documentKey(session.DocumentID), session.ID)
		pipe.Expire(ctx, s.documentKey(session.DocumentID), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis create session: %w", err)
	}
	return nil
}

// Get returns a session with its retained turns in order.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, domain.ErrUnknownSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var meta sessionMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	items, err := s.client.LRange(ctx, s.turnsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get turns: %w", err)
	}

	session := &domain.Session{
		ID:         meta.ID,
		DocumentID: meta.DocumentID,
		CreatedAt:  meta.CreatedAt,
		Turns:      make([]domain.Turn, 0, len(items)),
	}
	for _, item := range items {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		session.Turns = append(session.Turns, turn)
	}
	return session, nil
}

// AppendTurn pushes a turn and trims the list to the newest maxTurns. It
// refreshes the TTL of the session, its turns and its document's session set.
// The session key is watched so a concurrent Delete aborts the append.
func (s *SessionStore) AppendTurn(ctx context.Context, id string, turn domain.Turn, maxTurns int) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	sessionKey, turnsKey := s.sessionKey(id), s.turnsKey(id)
	err = s.client.Watch(ctx, func(tx *redisv9.Tx) error {
		raw, err := tx.Get(ctx, sessionKey).Result()
		if errors.Is(err, redisv9.Nil) {
			return domain.ErrUnknownSession
		}
		if err != nil {
			return err
		}
		var meta sessionMeta
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
			pipe.RPush(ctx, turnsKey, payload)
			if maxTurns > 0 {
				pipe.LTrim(ctx, turnsKey, int64(-maxTurns), -1)
			}
			pipe.Expire(ctx, turnsKey, s.ttl)
			pipe.Expire(ctx, sessionKey, s.ttl)
			pipe.Expire(ctx, s.documentKey(meta.DocumentID), s.ttl)
			return nil
		})
		return err
	}, sessionKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrUnknownSession):
		return err
	case errors.Is(err, redisv9.TxFailedErr):
		return fmt.Errorf("session %s changed during append: %w", id, err)
	default:
		return fmt.Errorf("redis append turn: %w", err)
	}
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get session: %w", err)
	}

	var meta sessionMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return fmt.Errorf("unmarshal session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(id), s.turnsKey(id))
		pipe.SRem(ctx, s.documentKey(meta.DocumentID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// DeleteByDocument removes every session bound to the document.
func (s *SessionStore) DeleteByDocument(ctx context.Context, documentID string) error {
	docKey := s.documentKey(documentID)
	ids, err := s.client.SMembers(ctx, docKey).Result()
	if err != nil {
		return fmt.Errorf("redis list document sessions: %w", err)
	}

	keys := make([]string, 0, 2*len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.sessionKey(id), s.turnsKey(id))
	}
	keys = append(keys, docKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete document sessions: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *SessionStore) turnsKey(id string) string {
	return s.prefix + "session:" + id + ":turns"
}

func (s *SessionStore) documentKey(documentID string) string {
	return s.prefix + "document:" + documentID + ":sessions"
}

func encodeTurns(turns []domain.Turn) ([]interface{}, error) {
	out := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		payload, err := json.Marshal(turn)
		if err != nil {
			return nil, fmt.Errorf("marshal turn: %w", err)
		}
		out = append(out, payload)
	}
	return out, nil
}
