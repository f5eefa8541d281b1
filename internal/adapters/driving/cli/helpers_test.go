package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// MockSettingsService keeps settings in memory.
type MockSettingsService struct {
	Settings domain.AppSettings
	Saved    int
	Path     string
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.Settings = *settings
	m.Saved++
	return nil
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model string) error {
	m.Settings.Embedding.Provider = provider
	m.Settings.Embedding.Model = model
	return nil
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	m.Settings.LLM.Provider = provider
	m.Settings.LLM.Model = model
	return nil
}

func (m *MockSettingsService) Validate() error {
	return m.Settings.Validate()
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *MockSettingsService) ConfigPath() string {
	return m.Path
}

// MockChatService records every request and answers with a fixed string.
type MockChatService struct {
	Requests []domain.AskRequest
	Err      error
}

func (m *MockChatService) Ask(_ context.Context, req domain.AskRequest) (*domain.ConversationTurn, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.ConversationTurn{
		ID:        int64(len(m.Requests)),
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Question:  req.Message,
		Answer:    "mock answer",
		CreatedAt: time.Now(),
	}, nil
}

// MockRetriever returns a fixed chunk.
type MockRetriever struct{}

func (m *MockRetriever) Retrieve(context.Context, string) (string, error) {
	return "mock chunk", nil
}

// MockIndexService reports fixed stats.
type MockIndexService struct{}

func (m *MockIndexService) Build(context.Context) (*domain.Corpus, error) {
	return &domain.Corpus{Texts: []string{"a"}, Embeddings: [][]float32{{1, 0}}}, nil
}

func (m *MockIndexService) Stats(context.Context) (*domain.IndexStats, error) {
	return &domain.IndexStats{
		Collection: "my_collection",
		Chunks:     42,
		Dimensions: 1536,
		Model:      "text-embedding-ada-002",
	}, nil
}

// MockHistoryService serves a fixed set of turns.
type MockHistoryService struct {
	Turns []domain.ConversationTurn
}

func (m *MockHistoryService) Session(_ context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	var out []domain.ConversationTurn
	for i := range m.Turns {
		if m.Turns[i].SessionID == sessionID {
			out = append(out, m.Turns[i])
		}
	}
	return out, nil
}

func (m *MockHistoryService) UserSessions(_ context.Context, userID string) ([]domain.SessionHistory, error) {
	var mine []domain.ConversationTurn
	for i := range m.Turns {
		if m.Turns[i].UserID == userID {
			mine = append(mine, m.Turns[i])
		}
	}
	return domain.GroupBySession(mine), nil
}

func (m *MockHistoryService) SessionStarts(context.Context) ([]domain.ConversationTurn, error) {
	seen := map[string]bool{}
	var out []domain.ConversationTurn
	for i := range m.Turns {
		if !seen[m.Turns[i].SessionID] {
			seen[m.Turns[i].SessionID] = true
			out = append(out, m.Turns[i])
		}
	}
	return out, nil
}

func (m *MockHistoryService) Turn(_ context.Context, id int64) (*domain.ConversationTurn, error) {
	for i := range m.Turns {
		if m.Turns[i].ID == id {
			return &m.Turns[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

type testServices struct {
	settings *MockSettingsService
	chat     *MockChatService
	history  *MockHistoryService
}

func sampleTurns() []domain.ConversationTurn {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []domain.ConversationTurn{
		{ID: 1, UserID: "alice", SessionID: "s1", Question: "How do I reset?", Answer: "Hold the button.", CreatedAt: at},
		{ID: 2, UserID: "alice", SessionID: "s1", Question: "For how long?", Answer: "Ten seconds.", CreatedAt: at.Add(time.Minute)},
		{ID: 3, UserID: "bob", SessionID: "s2", Question: "Where is the manual?", Answer: "Page one.", CreatedAt: at.Add(time.Hour)},
	}
}

// setupTestServices installs mocks for every service and returns a cleanup
// function that restores the previous values.
func setupTestServices() (*testServices, func()) {
	prevSettings, prevChat, prevRetriever := settingsService, chatService, retrieverService
	prevIndex, prevHistory := indexService, historyService

	settings := domain.DefaultAppSettings()
	settings.Documents.Paths = []string{"/docs/manual.pdf"}
	settings.Embedding.APIKey = "sk-test-embedding-key"
	settings.LLM.APIKey = "sk-test-llm-key"

	ts := &testServices{
		settings: &MockSettingsService{Settings: settings, Path: "/tmp/docchat/config.toml"},
		chat:     &MockChatService{},
		history:  &MockHistoryService{Turns: sampleTurns()},
	}
	settingsService = ts.settings
	chatService = ts.chat
	retrieverService = &MockRetriever{}
	indexService = &MockIndexService{}
	historyService = ts.history

	return ts, func() {
		settingsService, chatService, retrieverService = prevSettings, prevChat, prevRetriever
		indexService, historyService = prevIndex, prevHistory
	}
}

// execute runs the root command with args and returns stdout and stderr.
// Flags are reset afterwards because cobra keeps them between runs.
func execute(args ...string) (string, string, error) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
