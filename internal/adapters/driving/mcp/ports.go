package mcp

import (
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// Retriever returns the best matching passage. The retrieve tool is
	// only registered when set.
	Retriever driving.Retriever

	// History backs the session transcript resource.
	History driving.HistoryService

	// Index backs the index stats resource.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	// Retriever, History and Index are optional
	return nil
}
