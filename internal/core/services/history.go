package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService provides read-only views over recorded turns.
type HistoryService struct {
	store driven.ConversationStore
}

// NewHistoryService creates a history service.
func NewHistoryService(store driven.ConversationStore) *HistoryService {
	return &HistoryService{store: store}
}

// Session returns the turns of one session in creation order.
func (s *HistoryService) Session(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	turns, err := s.store.BySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return turns, nil
}

// UserSessions returns a user's turns grouped by session.
func (s *HistoryService) UserSessions(ctx context.Context, userID string) ([]domain.SessionHistory, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	turns, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", userID, err)
	}
	return domain.GroupBySession(turns), nil
}

// SessionStarts returns the first turn of every session.
func (s *HistoryService) SessionStarts(ctx context.Context) ([]domain.ConversationTurn, error) {
	turns, err := s.store.SessionStarts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session starts: %w", err)
	}
	return turns, nil
}

// Turn returns a single turn by ID.
func (s *HistoryService) Turn(ctx context.Context, id int64) (*domain.ConversationTurn, error) {
	turn, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load turn %d: %w", id, err)
	}
	return turn, nil
}
