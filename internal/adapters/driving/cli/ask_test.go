package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_Flags(t *testing.T) {
	user := askCmd.Flags().Lookup("user")
	require.NotNil(t, user)
	assert.Equal(t, "u", user.Shorthand)

	session := askCmd.Flags().Lookup("session")
	require.NotNil(t, session)
	assert.Equal(t, "s", session.Shorthand)
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("ask")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestAskCmd_JoinsArgsAndUsesFlags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	stdout, stderr, err := execute("ask", "-u", "alice", "-s", "s1", "how", "do", "I", "reset?")

	require.NoError(t, err)
	assert.Contains(t, stdout, "mock answer")
	assert.NotContains(t, stderr, "session:")
	require.Len(t, ts.chat.Requests, 1)
	assert.Equal(t, domain.AskRequest{UserID: "alice", SessionID: "s1", Message: "how do I reset?"}, ts.chat.Requests[0])
}

func TestAskCmd_NewSessionIsReported(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, stderr, err := execute("ask", "hello")

	require.NoError(t, err)
	require.Len(t, ts.chat.Requests, 1)
	req := ts.chat.Requests[0]
	assert.NotEmpty(t, req.UserID)
	assert.Len(t, req.SessionID, 36)
	assert.Contains(t, stderr, "session: "+req.SessionID)
}

func TestAskCmd_PropagatesErrors(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.chat.Err = domain.ErrLLMUnavailable

	_, _, err := execute("ask", "hello")

	assert.True(t, errors.Is(err, domain.ErrLLMUnavailable))
}

func TestDefaultUserID(t *testing.T) {
	assert.NotEmpty(t, defaultUserID())
}
