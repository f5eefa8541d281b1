package tui

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("tui: chat service is required")

// ErrMissingUser is returned when no user id is configured.
var ErrMissingUser = errors.New("tui: user id is required")
