package httpapi

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

type mockChatService struct {
	answer string
	err    error
	reqs   []domain.AskRequest
}

func (m *mockChatService) Ask(_ context.Context, req domain.AskRequest) (*domain.ConversationTurn, error) {
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ConversationTurn{
		ID:        1,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Question:  req.Message,
		Answer:    m.answer,
	}, nil
}

type mockHistoryService struct {
	turns    []domain.ConversationTurn
	sessions []domain.SessionHistory
	turn     *domain.ConversationTurn
	err      error
	lastID   string
}

func (m *mockHistoryService) Session(_ context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	m.lastID = sessionID
	return m.turns, m.err
}

func (m *mockHistoryService) UserSessions(_ context.Context, userID string) ([]domain.SessionHistory, error) {
	m.lastID = userID
	return m.sessions, m.err
}

func (m *mockHistoryService) SessionStarts(_ context.Context) ([]domain.ConversationTurn, error) {
	return m.turns, m.err
}

func (m *mockHistoryService) Turn(_ context.Context, _ int64) (*domain.ConversationTurn, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.turn == nil {
		return nil, domain.ErrNotFound
	}
	return m.turn, nil
}

type mockIndexService struct {
	stats *domain.IndexStats
	err   error
}

func (m *mockIndexService) Build(_ context.Context) (*domain.Corpus, error) {
	return &domain.Corpus{}, nil
}

func (m *mockIndexService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}
