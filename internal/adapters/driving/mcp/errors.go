// Package mcp provides an MCP (Model Context Protocol) server adapter for docchat.
// It lets AI assistants ask questions about the indexed documents and pull
// the best matching passage directly.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
