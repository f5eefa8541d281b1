package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil ports", func(t *testing.T) {
		var ports *Ports
		assert.ErrorIs(t, ports.Validate(), ErrMissingChatService)
	})

	t.Run("chat only is valid", func(t *testing.T) {
		ports := &Ports{Chat: &mockChatService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Chat:      &mockChatService{},
			Retriever: &mockRetriever{},
			History:   &mockHistoryService{},
			Index:     &mockIndexService{},
		}
		assert.NoError(t, ports.Validate())
	})
}

// connect wires an in-memory client session to the server.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestServer_ListsTools(t *testing.T) {
	t.Run("retrieve registered with retriever", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Retriever: &mockRetriever{}})
		require.NoError(t, err)

		res, err := connect(t, server).ListTools(context.Background(), nil)
		require.NoError(t, err)

		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"ask", "retrieve"}, names)
	})

	t.Run("ask only without retriever", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		res, err := connect(t, server).ListTools(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, res.Tools, 1)
		assert.Equal(t, "ask", res.Tools[0].Name)
	})
}

func TestServer_CallAskOverSession(t *testing.T) {
	chat := &mockChatService{answer: "Paris."}
	server, err := NewServer(&Ports{Chat: chat})
	require.NoError(t, err)

	res, err := connect(t, server).CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "ask",
		Arguments: map[string]any{"question": "What is the capital of France?", "session_id": "s1"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	out, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Paris.", out["answer"])
	assert.Equal(t, "s1", out["session_id"])

	require.Len(t, chat.reqs, 1)
	assert.Equal(t, DefaultUserID, chat.reqs[0].UserID)
}
