package mcp

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
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
		ID:        int64(len(m.reqs)),
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Question:  req.Message,
		Answer:    m.answer,
	}, nil
}

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	chunk   string
	err     error
	queries []string
}

func (m *mockRetriever) Retrieve(_ context.Context, query string) (string, error) {
	m.queries = append(m.queries, query)
	return m.chunk, m.err
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	turns []domain.ConversationTurn
	err   error
}

func (m *mockHistoryService) Session(_ context.Context, _ string) ([]domain.ConversationTurn, error) {
	return m.turns, m.err
}

func (m *mockHistoryService) UserSessions(_ context.Context, _ string) ([]domain.SessionHistory, error) {
	return domain.GroupBySession(m.turns), m.err
}

func (m *mockHistoryService) SessionStarts(_ context.Context) ([]domain.ConversationTurn, error) {
	return m.turns, m.err
}

func (m *mockHistoryService) Turn(_ context.Context, _ int64) (*domain.ConversationTurn, error) {
	return nil, domain.ErrNotFound
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats *domain.IndexStats
	err   error
}

func (m *mockIndexService) Build(_ context.Context) (*domain.Corpus, error) {
	return &domain.Corpus{}, m.err
}

func (m *mockIndexService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}
