package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"chunking.size":   int64(500),
		"documents.paths": []any{"a.pdf"},
	})

	assert.Equal(t, 500, store.GetInt("chunking.size"))
	assert.Equal(t, []string{"a.pdf"}, store.GetStringSlice("documents.paths"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("retry.requests_per_second", 2.5))
	require.NoError(t, store.Set("chat.retrieval", true))

	assert.Equal(t, "llama3.2", store.GetString("llm.model"))
	assert.Equal(t, 2.5, store.GetFloat("retry.requests_per_second"))
	assert.True(t, store.GetBool("chat.retrieval"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}
