// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// QuestionSubmitted is sent when the user presses enter on a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the recorded turn back to the model.
type AnswerReceived struct {
	Turn *domain.ConversationTurn
	Err  error
}

// SessionsLoaded carries the user's sessions from the history service.
type SessionsLoaded struct {
	Sessions []domain.SessionHistory
	Err      error
}

// SessionSelected is sent when an earlier session is reopened.
type SessionSelected struct {
	Session domain.SessionHistory
}

// NewSession is sent when the user starts a fresh session.
type NewSession struct{}

// StatsLoaded carries index stats for the status bar.
type StatsLoaded struct {
	Stats *domain.IndexStats
	Err   error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewSessions lists earlier sessions.
	ViewSessions
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewSessions:
		return "sessions"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
