package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/findoc/internal/core/domain"
	"github.com/custodia-labs/findoc/internal/core/ports/driven"
)

// setupTestStore creates a file-backed SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func sessions(t *testing.T) driven.SessionStore {
	t.Helper()
	return setupTestStore(t).SessionStore()
}

func TestNewStore_InMemory(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, MemoryPath, store.Path())

	ctx := context.Background()
	ss := store.SessionStore()
	require.NoError(t, ss.Create(ctx, &domain.Session{ID: "s1", DocumentID: "doc-1"}))
	_, err = ss.Get(ctx, "s1")
	assert.NoError(t, err)
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.SessionStore().Create(context.Background(), &domain.Session{ID: "s1"}))
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()
	_, err = second.SessionStore().Get(context.Background(), "s1")
	assert.NoError(t, err)
}

func TestSessionStore_CreateGet(t *testing.T) {
	ss := sessions(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	require.NoError(t, ss.Create(ctx, &domain.Session{ID: "s1", DocumentID: "doc-1", CreatedAt: created}))

	got, err := ss.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Empty(t, got.Turns)
}

func TestSessionStore_CreateDuplicate(t *testing.T) {
	ss := sessions(t)
	ctx := context.Background()
	require.NoError(t, ss.Create(ctx, &domain.Session{ID: "s1"}))
	assert.Error(t, ss.Create(ctx, &domain.Session{ID: "s1"}))
}

func TestSessionStore_Unknown(t *testing.T) {
	ss := sessions(t)
	ctx := context.Background()

	_, err := ss.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUnknownSession)
	assert.ErrorIs(t, ss.AppendTurn(ctx, "missing", domain.Turn{}, 0), domain.ErrUnknownSession)
}

func TestSessionStore_AppendTurn_RoundTrip(t *testing.T) {
	ss := sessions(t)
	ctx := context.Background()
	require.NoError(t, ss.Create(ctx, &domain.Session{ID: "s1", DocumentID: "doc-1"}))

	asked := time.Date(2024, 3, 15, 10, 0, 0, 123, time.UTC)
	turn := domain.Turn{
		Question:          "What is the notional?",
		RetrievedChunkIDs: []string{"c1", "c2"},
		Answer:            "USD 10m [chunk:c1]",
		CitedChunkIDs:     []string{"c1"},
		Timestamp:         asked,
	}
	require.NoError(t, ss.AppendTurn(ctx, "s1", turn, 0))

	got, err := ss.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, turn.Question, got.Turns[0].Question)
	assert.Equal(t, turn.RetrievedChunkIDs, got.Turns[0].RetrievedChunkIDs)
	assert.Equal(t, turn.CitedChunkIDs, got.Turns[0].CitedChunkIDs)
	assert.True(t, asked.Equal(got.Turns[0].Timestamp))
}

func TestSessionStore_AppendTurn_Evicts(t *testing.T) {
	ss := sessions(t)
	ctx := context.Background()
	require.NoError(t, ss.Create(ctx, &domain.Session{ID: "s1"}))

	for i := 0; i < 6; i++ {
		require.NoError(t, ss.AppendTurn(ctx, "s1", domain.Turn{Question: fmt.Sprintf("q%d", i)}, 4))
	}

	got, err := ss.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Turns, 4)
	assert.Equal(t, "q2", got.Turns[0].Question)
	assert.Equal(t, "q5", got.Turns[3].Question)
}

func TestSessionStore_Delete(t *testing.T) {
	ss := sessions(t)
	ctx := context.Background()
	require.NoError(t, ss.Create(ctx, &domain.Session{ID: "s1", DocumentID: "doc-1"}))
	require.NoError(t, ss.Create(ctx, &domain.Session{ID: "s2", DocumentID: "doc-1"}))
	require.NoError(t, ss.Create(ctx, &domain.Session{ID: "s3", DocumentID: "doc-2"}))
	require.NoError(t, ss.AppendTurn(ctx, "s1", domain.Turn{Question: "q"}, 0))

	require.NoError(t, ss.DeleteByDocument(ctx, "doc-1"))
	_, err := ss.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrUnknownSession)
	_, err = ss.Get(ctx, "s3")
	assert.NoError(t, err)

	require.NoError(t, ss.Delete(ctx, "s3"))
	_, err = ss.Get(ctx, "s3")
	assert.ErrorIs(t, err, domain.ErrUnknownSession)
}

func TestSessionStore_ConcurrentAppends(t *testing.T) {
	ss := sessions(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, ss.Create(ctx, &domain.Session{ID: fmt.Sprintf("s%d", i)}))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 4; i++ {
		for j := 0; j < 10; j++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				errs <- ss.AppendTurn(ctx, id, domain.Turn{Question: "q"}, 0)
			}(fmt.Sprintf("s%d", i))
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for i := 0; i < 4; i++ {
		got, err := ss.Get(ctx, fmt.Sprintf("s%d", i))
		require.NoError(t, err)
		assert.Len(t, got.Turns, 10)
	}
}
