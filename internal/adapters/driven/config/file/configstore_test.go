package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "findoc")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), store.Path())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".findoc"), dir)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("retrieval.top_k", 8))
	require.NoError(t, store.Set("extraction.day_first", true))
	require.NoError(t, store.Set("extraction.date_layouts", []string{"2006-01-02", "2 Jan 2006"}))

	assert.Equal(t, "llama3.2", store.GetString("llm.model"))
	assert.Equal(t, 8, store.GetInt("retrieval.top_k"))
	assert.True(t, store.GetBool("extraction.day_first"))
	assert.Equal(t, []string{"2006-01-02", "2 Jan 2006"}, store.GetStringSlice("extraction.date_layouts"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("llm.model"))
}

func TestConfigStore_PersistsAsTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("retrieval.top_k", 4))
	require.NoError(t, store.Set("extraction.date_layouts", []string{"2006-01-02"}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")
	assert.Contains(t, string(data), "[retrieval]")

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", reopened.GetString("llm.provider"))
	assert.Equal(t, 4, reopened.GetInt("retrieval.top_k"))
	assert.Equal(t, []string{"2006-01-02"}, reopened.GetStringSlice("extraction.date_layouts"))
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[embedding]
provider = "openai"
batch_size = 32

[session]
backend = "redis"
redis_addr = "localhost:6379"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, 32, store.GetInt("embedding.batch_size"))
	assert.Equal(t, "localhost:6379", store.GetString("session.redis_addr"))

	raw, ok := store.Get("embedding.batch_size")
	require.True(t, ok)
	assert.IsType(t, int64(0), raw)
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("[llm\nmodel = "), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_LoadDiscardsUnsavedValues(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.model", "saved"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[llm]\nmodel = \"edited\"\n"), 0600))
	require.NoError(t, store.Load())
	assert.Equal(t, "edited", store.GetString("llm.model"))

	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, store.Load())
	assert.Empty(t, store.GetString("llm.model"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_ConcurrentSet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Set("retrieval.top_k", i))
			_ = store.GetInt("retrieval.top_k")
		}()
	}
	wg.Wait()

	_, ok := store.Get("retrieval.top_k")
	assert.True(t, ok)
}
