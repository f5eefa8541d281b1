package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// historyHeader introduces the conversational context in the composed prompt.
const historyHeader = "Previous conversation:"

// ChatService answers a user turn: conversational context, then retrieval,
// then generation, then persistence.
type ChatService struct {
	history      *ContextBuilder
	retriever    driving.Retriever
	generator    *Generator
	store        driven.ConversationStore
	historyLimit int
	now          func() time.Time
}

// ChatOption configures the chat service.
type ChatOption func(*ChatService)

// WithRetriever enables document retrieval. Without it, answers use only
// the conversational context.
func WithRetriever(r driving.Retriever) ChatOption {
	return func(s *ChatService) {
		s.retriever = r
	}
}

// WithHistoryLimit sets how many recent turns are included.
func WithHistoryLimit(n int) ChatOption {
	return func(s *ChatService) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithClock overrides the time source used to stamp turns.
func WithClock(now func() time.Time) ChatOption {
	return func(s *ChatService) {
		s.now = now
	}
}

// NewChatService creates a chat service.
func NewChatService(
	history *ContextBuilder,
	generator *Generator,
	store driven.ConversationStore,
	opts ...ChatOption,
) *ChatService {
	s := &ChatService{
		history:      history,
		generator:    generator,
		store:        store,
		historyLimit: domain.DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers req.Message and records the turn.
func (s *ChatService) Ask(ctx context.Context, req domain.AskRequest) (*domain.ConversationTurn, error) {
	logger.Section("Chat Turn")

	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := s.now()

	history, err := s.history.Build(ctx, req.UserID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("build conversation context: %w", err)
	}

	var document string
	if s.retriever != nil {
		document, err = s.retriever.Retrieve(ctx, req.Message)
		if err != nil {
			return nil, fmt.Errorf("retrieve context: %w", err)
		}
	}

	answer, err := s.generator.Generate(ctx, req.Message, ComposeContext(document, history))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	turn := &domain.ConversationTurn{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Question:  req.Message,
		Answer:    answer,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Append(ctx, turn); err != nil {
		return nil, fmt.Errorf("record turn: %w", err)
	}

	logger.Info("Answered turn %d for session %s in %s", turn.ID, turn.SessionID, s.now().Sub(started))
	return turn, nil
}

// ComposeContext joins the retrieved document text and the conversational
// history into the single context string given to the generator.
// Empty parts are omitted.
func ComposeContext(document, history string) string {
	var parts []string
	if d := strings.TrimSpace(document); d != "" {
		parts = append(parts, d)
	}
	if h := strings.TrimSpace(history); h != "" {
		parts = append(parts, historyHeader+"\n"+h)
	}
	return strings.Join(parts, "\n\n")
}
