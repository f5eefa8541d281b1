package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// setupTestStore connects to the database named by DOCCHAT_TEST_POSTGRES_DSN.
func setupTestStore(t *testing.T) *ConversationStore {
	t.Helper()

	dsn := os.Getenv("DOCCHAT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCCHAT_TEST_POSTGRES_DSN not set")
	}

	store, err := NewConversationStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewConversationStore_EmptyDSN(t *testing.T) {
	_, err := NewConversationStore(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestNewConversationStore_BadDSN(t *testing.T) {
	_, err := NewConversationStore(context.Background(), "postgres://%zz")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestConversationStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Unique ids keep runs against a shared database independent.
	user := "user-" + uuid.NewString()
	first := "session-a-" + uuid.NewString()
	second := "session-b-" + uuid.NewString()
	base := time.Date(2024, 9, 9, 14, 30, 0, 0, time.UTC)

	add := func(session, question string, at time.Time) domain.ConversationTurn {
		turn := domain.ConversationTurn{UserID: user, SessionID: session, Question: question, Answer: "a", CreatedAt: at}
		require.NoError(t, store.Append(ctx, &turn))
		require.NotZero(t, turn.ID)
		return turn
	}

	add(second, "later", base.Add(2*time.Minute))
	one := add(first, "first", base)
	add(first, "second", base.Add(time.Minute))

	got, err := store.Get(ctx, one.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Question)
	assert.True(t, base.Equal(got.CreatedAt))

	recent, err := store.RecentByUser(ctx, user, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "later", recent[0].Question)
	assert.Equal(t, "second", recent[1].Question)

	session, err := store.BySession(ctx, first)
	require.NoError(t, err)
	require.Len(t, session, 2)
	assert.Equal(t, "first", session[0].Question)

	all, err := store.ByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	starts, err := store.SessionStarts(ctx)
	require.NoError(t, err)
	var mine []string
	for _, s := range starts {
		if s.UserID == user {
			mine = append(mine, s.Question)
		}
	}
	assert.ElementsMatch(t, []string{"first", "later"}, mine)

	_, err = store.Get(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
