package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts are embedded as keyword counts over vocab.
type mockEmbeddingService struct {
	vocab      []string
	embedErr   error
	batchErr   error
	shortBatch bool
	calls      int
	batches    [][]string
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(m.vocab))
	for i, w := range m.vocab {
		v[i] = float32(strings.Count(lower, w))
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	m.batches = append(m.batches, texts)
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, m.vector(t))
	}
	if m.shortBatch && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbeddingService) ModelName() string           { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	answer   string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	calls    int
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = messages
	m.opts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLMService) ModelName() string           { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// lastPrompt returns the user message of the most recent call.
func (m *mockLLMService) lastPrompt() string {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == driven.RoleUser {
			return m.messages[i].Content
		}
	}
	return ""
}

// mockDocumentLoader implements driven.DocumentLoader for testing.
type mockDocumentLoader struct {
	docs  []domain.SourceDocument
	err   error
	paths []string
}

func (m *mockDocumentLoader) Load(_ context.Context, paths []string) ([]domain.SourceDocument, error) {
	m.paths = paths
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

// mockRetriever implements driving.Retriever for testing.
type mockRetriever struct {
	text    string
	err     error
	queries []string
}

func (m *mockRetriever) Retrieve(_ context.Context, query string) (string, error) {
	m.queries = append(m.queries, query)
	return m.text, m.err
}

// failingConversationStore implements driven.ConversationStore with fixed errors.
type failingConversationStore struct {
	readErr   error
	appendErr error
	appended  int
}

func (m *failingConversationStore) Append(_ context.Context, _ *domain.ConversationTurn) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended++
	return nil
}

func (m *failingConversationStore) RecentByUser(_ context.Context, _ string, _ int) ([]domain.ConversationTurn, error) {
	return nil, m.readErr
}

func (m *failingConversationStore) BySession(_ context.Context, _ string) ([]domain.ConversationTurn, error) {
	return nil, m.readErr
}

func (m *failingConversationStore) ByUser(_ context.Context, _ string) ([]domain.ConversationTurn, error) {
	return nil, m.readErr
}

func (m *failingConversationStore) SessionStarts(_ context.Context) ([]domain.ConversationTurn, error) {
	return nil, m.readErr
}

func (m *failingConversationStore) Get(_ context.Context, _ int64) (*domain.ConversationTurn, error) {
	return nil, m.readErr
}

func (m *failingConversationStore) Close() error { return nil }
