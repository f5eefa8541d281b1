package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func chunk(i int, text string, embedding ...float32) domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:        domain.ChunkID(i),
		Text:      text,
		Embedding: embedding,
		Position:  i,
		Source:    "capitals.txt",
	}
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	_, err = first.VectorIndex().EnsureCollection(context.Background(), "docs")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	n, err := second.VectorIndex().Count(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// ==================== Vector Index Tests ====================

func TestVectorIndex_EnsureCollection(t *testing.T) {
	ctx := context.Background()
	index := setupTestStore(t).VectorIndex()

	first, err := index.EnsureCollection(ctx, "my_collection")
	require.NoError(t, err)
	assert.Equal(t, "my_collection", first.Name)
	assert.False(t, first.CreatedAt.IsZero())

	again, err := index.EnsureCollection(ctx, "my_collection")
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))

	_, err = index.EnsureCollection(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorIndex_AddAndChunks(t *testing.T) {
	ctx := context.Background()
	index := setupTestStore(t).VectorIndex()
	_, err := index.EnsureCollection(ctx, "docs")
	require.NoError(t, err)

	require.NoError(t, index.Add(ctx, "docs", []domain.DocumentChunk{
		chunk(0, "Berlin", 1, 0, 0.5),
		chunk(1, "Paris", 0, 1, -0.25),
	}))
	require.NoError(t, index.Add(ctx, "docs", []domain.DocumentChunk{chunk(2, "Rome", 0.1, 0.2, 0.3)}))

	chunks, err := index.Chunks(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "doc_0", chunks[0].ID)
	assert.Equal(t, "Berlin", chunks[0].Text)
	assert.Equal(t, []float32{1, 0, 0.5}, chunks[0].Embedding)
	assert.Equal(t, "capitals.txt", chunks[0].Source)
	assert.Equal(t, "Paris", chunks[1].Text)
	assert.Equal(t, []float32{0, 1, -0.25}, chunks[1].Embedding)
	assert.Equal(t, 2, chunks[2].Position)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, chunks[2].Embedding)

	n, err := index.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestVectorIndex_DuplicateIDLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	index := setupTestStore(t).VectorIndex()
	_, err := index.EnsureCollection(ctx, "docs")
	require.NoError(t, err)
	require.NoError(t, index.Add(ctx, "docs", []domain.DocumentChunk{chunk(0, "Berlin", 1)}))

	t.Run("existing id", func(t *testing.T) {
		err := index.Add(ctx, "docs", []domain.DocumentChunk{chunk(1, "Paris", 1), chunk(0, "again", 1)})
		assert.ErrorIs(t, err, domain.ErrDuplicateID)
	})

	t.Run("repeated within batch", func(t *testing.T) {
		err := index.Add(ctx, "docs", []domain.DocumentChunk{chunk(5, "a", 1), chunk(5, "b", 1)})
		assert.ErrorIs(t, err, domain.ErrDuplicateID)
	})

	chunks, err := index.Chunks(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Berlin", chunks[0].Text)
}

func TestVectorIndex_SameIDInDifferentCollections(t *testing.T) {
	ctx := context.Background()
	index := setupTestStore(t).VectorIndex()
	for _, name := range []string{"a", "b"} {
		_, err := index.EnsureCollection(ctx, name)
		require.NoError(t, err)
		require.NoError(t, index.Add(ctx, name, []domain.DocumentChunk{chunk(0, name, 1)}))
	}

	chunks, err := index.Chunks(ctx, "b")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "b", chunks[0].Text)
}

func TestVectorIndex_UnknownCollection(t *testing.T) {
	ctx := context.Background()
	index := setupTestStore(t).VectorIndex()

	assert.ErrorIs(t, index.Add(ctx, "missing", []domain.DocumentChunk{chunk(0, "x", 1)}), domain.ErrNotFound)

	_, err := index.Chunks(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = index.Count(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorIndex_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	_, err = store.VectorIndex().EnsureCollection(ctx, "docs")
	require.NoError(t, err)
	require.NoError(t, store.VectorIndex().Add(ctx, "docs", []domain.DocumentChunk{chunk(0, "Berlin", 0.5, 0.5)}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	chunks, err := reopened.VectorIndex().Chunks(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{0.5, 0.5}, chunks[0].Embedding)
}

// ==================== Conversation Store Tests ====================

func appendTurn(t *testing.T, store *ConversationStore, user, session, question string, at time.Time) domain.ConversationTurn {
	t.Helper()
	turn := domain.ConversationTurn{
		UserID:    user,
		SessionID: session,
		Question:  question,
		Answer:    "answer to " + question,
		CreatedAt: at,
	}
	require.NoError(t, store.Append(context.Background(), &turn))
	return turn
}

func TestConversationStore_AppendAndGet(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).ConversationStore()
	at := time.Date(2024, 9, 9, 14, 30, 0, 123, time.UTC)

	turn := appendTurn(t, store, "u1", "s1", "What is the capital of France?", at)
	assert.Equal(t, int64(1), turn.ID)

	got, err := store.Get(ctx, turn.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "What is the capital of France?", got.Question)
	assert.Equal(t, "answer to What is the capital of France?", got.Answer)
	assert.True(t, at.Equal(got.CreatedAt))

	_, err = store.Get(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_AppendSetsTimestamp(t *testing.T) {
	store := setupTestStore(t).ConversationStore()
	turn := domain.ConversationTurn{UserID: "u", SessionID: "s", Question: "q", Answer: "a"}

	require.NoError(t, store.Append(context.Background(), &turn))

	assert.False(t, turn.CreatedAt.IsZero())
	assert.WithinDuration(t, time.Now(), turn.CreatedAt, time.Minute)
}

func TestConversationStore_Ordering(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t).ConversationStore()
	base := time.Date(2024, 9, 9, 10, 0, 0, 0, time.UTC)

	appendTurn(t, store, "u1", "s2", "third", base.Add(3*time.Minute))
	appendTurn(t, store, "u1", "s1", "first", base.Add(time.Minute))
	appendTurn(t, store, "u2", "s3", "other user", base.Add(2*time.Minute))
	appendTurn(t, store, "u1", "s1", "second", base.Add(2*time.Minute))
	appendTurn(t, store, "u1", "s1", "same time", base.Add(2*time.Minute))

	t.Run("recent by user newest first", func(t *testing.T) {
		turns, err := store.RecentByUser(ctx, "u1", 3)
		require.NoError(t, err)
		require.Len(t, turns, 3)
		assert.Equal(t, "third", turns[0].Question)
		assert.Equal(t, "same time", turns[1].Question)
		assert.Equal(t, "second", turns[2].Question)
	})

	t.Run("zero limit", func(t *testing.T) {
		turns, err := store.RecentByUser(ctx, "u1", 0)
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("by session oldest first", func(t *testing.T) {
		turns, err := store.BySession(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, turns, 3)
		assert.Equal(t, "first", turns[0].Question)
		assert.Equal(t, "second", turns[1].Question)
		assert.Equal(t, "same time", turns[2].Question)
	})

	t.Run("by user grouped by session", func(t *testing.T) {
		turns, err := store.ByUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, turns, 4)
		assert.Equal(t, "s1", turns[0].SessionID)
		assert.Equal(t, "first", turns[0].Question)
		assert.Equal(t, "s2", turns[3].SessionID)
	})

	t.Run("session starts", func(t *testing.T) {
		turns, err := store.SessionStarts(ctx)
		require.NoError(t, err)
		require.Len(t, turns, 3)
		assert.Equal(t, "first", turns[0].Question)
		assert.Equal(t, "third", turns[1].Question)
		assert.Equal(t, "other user", turns[2].Question)
	})

	t.Run("unknown ids", func(t *testing.T) {
		turns, err := store.BySession(ctx, "nope")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})
}

func TestConversationStore_ConcurrentAppends(t *testing.T) {
	store := setupTestStore(t).ConversationStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			turn := domain.ConversationTurn{UserID: "u", SessionID: "s", Question: "q", Answer: "a"}
			assert.NoError(t, store.Append(context.Background(), &turn))
		}()
	}
	wg.Wait()

	turns, err := store.BySession(context.Background(), "s")
	require.NoError(t, err)
	assert.Len(t, turns, 10)
}

func TestFloat32Conversion(t *testing.T) {
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))

	in := []float32{0, 1.5, -2.25, 3.4e38}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
}
