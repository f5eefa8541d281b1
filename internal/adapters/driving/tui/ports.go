// Package tui provides an interactive terminal chat for docchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// History lists and reopens earlier sessions. Optional.
	History driving.HistoryService

	// Index reports corpus stats in the status bar. Optional.
	Index driving.IndexService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	chat driving.ChatService,
	history driving.HistoryService,
	index driving.IndexService,
) *Ports {
	return &Ports{
		Chat:    chat,
		History: history,
		Index:   index,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
