package domain

import (
	"strings"
	"time"
)

// DefaultHistoryLimit is how many recent turns are included as conversational context.
const DefaultHistoryLimit = 5

// ConversationTurn is one persisted question/answer exchange.
// Turns are append-only and never modified.
type ConversationTurn struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionHistory groups the turns of one session in creation order.
type SessionHistory struct {
	SessionID string             `json:"session_id"`
	Turns     []ConversationTurn `json:"turns"`
}

// AskRequest is a single user turn submitted to the chat service.
type AskRequest struct {
	UserID    string
	SessionID string
	Message   string
}

// Validate checks that the request identifies a caller and carries a question.
func (r AskRequest) Validate() error {
	switch {
	case r.UserID == "":
		return &ValidationError{Field: "user_id", Reason: "is required"}
	case r.SessionID == "":
		return &ValidationError{Field: "session_id", Reason: "is required"}
	case strings.TrimSpace(r.Message) == "":
		return &ValidationError{Field: "message", Reason: "must not be blank"}
	}
	return nil
}

// ValidationError describes one rejected request field.
// It unwraps to ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Field + " " + e.Reason
}

// Unwrap allows errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// GroupBySession groups turns by session id. Sessions keep the order in which
// they first appear in turns; turns keep their relative order.
func GroupBySession(turns []ConversationTurn) []SessionHistory {
	index := make(map[string]int)
	var out []SessionHistory
	for i := range turns {
		pos, ok := index[turns[i].SessionID]
		if !ok {
			pos = len(out)
			index[turns[i].SessionID] = pos
			out = append(out, SessionHistory{SessionID: turns[i].SessionID})
		}
		out[pos].Turns = append(out[pos].Turns, turns[i])
	}
	return out
}
