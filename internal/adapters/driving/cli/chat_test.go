package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
)

func TestChatCmd_Flags(t *testing.T) {
	user := chatCmd.Flags().Lookup("user")
	require.NotNil(t, user)
	assert.Equal(t, "u", user.Shorthand)

	session := chatCmd.Flags().Lookup("session")
	require.NotNil(t, session)
	assert.Equal(t, "s", session.Shorthand)
}

func TestChatCmd_RefusesWithoutTerminal(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	prev := isTerminal
	isTerminal = func() bool { return false }
	defer func() { isTerminal = prev }()

	_, _, err := execute("chat")

	assert.ErrorIs(t, err, errNotTerminal)
}

func TestNewChatApp(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	chatUser, chatSession = "alice", "s1"
	defer func() { chatUser, chatSession = "", "" }()

	app, err := newChatApp()

	require.NoError(t, err)
	assert.Equal(t, "s1", app.SessionID())
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestNewChatApp_DefaultsUserAndSession(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	app, err := newChatApp()

	require.NoError(t, err)
	assert.NotEmpty(t, app.SessionID())
}

func TestNewChatApp_RequiresChatService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	chatService = nil

	_, err := newChatApp()

	assert.Error(t, err)
}
