package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("passes identity through", func(t *testing.T) {
		chat := &mockChatService{answer: "Berlin."}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{
			Question:  "And Germany?",
			UserID:    "alice",
			SessionID: "s-42",
		})

		require.NoError(t, err)
		assert.Equal(t, "Berlin.", output.Answer)
		assert.Equal(t, "s-42", output.SessionID)
		assert.Equal(t, int64(1), output.TurnID)
		assert.Equal(t, domain.AskRequest{UserID: "alice", SessionID: "s-42", Message: "And Germany?"}, chat.reqs[0])
	})

	t.Run("defaults user and creates session", func(t *testing.T) {
		chat := &mockChatService{answer: "ok"}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "hi"})

		require.NoError(t, err)
		assert.Equal(t, DefaultUserID, chat.reqs[0].UserID)
		assert.Len(t, output.SessionID, 36)
	})

	t.Run("returns error on chat failure", func(t *testing.T) {
		chat := &mockChatService{err: domain.ErrTransient}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "hi"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransient)
		assert.Contains(t, err.Error(), "ask failed")
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns best chunk", func(t *testing.T) {
		retriever := &mockRetriever{chunk: "Paris is the capital of France."}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Retriever: retriever})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "France"})

		require.NoError(t, err)
		assert.Equal(t, "Paris is the capital of France.", output.Chunk)
		assert.Equal(t, []string{"France"}, retriever.queries)
	})

	t.Run("empty query", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Retriever: &mockRetriever{}})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty corpus", func(t *testing.T) {
		retriever := &mockRetriever{err: domain.ErrEmptyCorpus}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Retriever: retriever})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "x"})
		assert.True(t, errors.Is(err, domain.ErrEmptyCorpus))
	})
}
