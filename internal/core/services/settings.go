package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDocumentPaths     = "documents.paths"
	keyChunkSize         = "chunking.size"
	keyChunkOverlap      = "chunking.overlap"
	keyIndexDir          = "index.dir"
	keyIndexCollection   = "index.collection"
	keyIndexBatchSize    = "index.batch_size"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyLLMSystemPrompt   = "llm.system_prompt"
	keyChatHistoryLimit  = "chat.history_limit"
	keyChatRetrieval     = "chat.retrieval"
	keyRecordsDriver     = "records.driver"
	keyRecordsDSN        = "records.dsn"
	keyRetryMaxAttempts  = "retry.max_attempts"
	keyRetryBaseDelayMS  = "retry.base_delay_ms"
	keyRetryMaxDelayMS   = "retry.max_delay_ms"
	keyRetryRPS          = "retry.requests_per_second"
	keyRetryBurst        = "retry.burst"
	keyServerAddr        = "server.addr"
	keyServerTimeoutSecs = "server.request_timeout_seconds"
)

// Environment variables consulted when the config file leaves a value empty.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvGoogleKey    = "GOOGLE_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
	EnvDatabaseURL  = "DATABASE_URL"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service. getenv is used for
// API keys and hosts not present in the config file; nil means os.Getenv.
func NewSettingsService(configStore driven.ConfigStore, getenv func(string) string) *SettingsService {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &SettingsService{
		configStore: configStore,
		getenv:      getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Documents: domain.DocumentSettings{
			Paths: expandPaths(s.configStore.GetStringSlice(keyDocumentPaths)),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Index: domain.IndexSettings{
			Dir:        expandPath(s.configStore.GetString(keyIndexDir)),
			Collection: s.getString(keyIndexCollection, d.Index.Collection),
			BatchSize:  s.getInt(keyIndexBatchSize, d.Index.BatchSize),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:     s.getProvider(keyLLMProvider, d.LLM.Provider),
			BaseURL:      s.configStore.GetString(keyLLMBaseURL),
			APIKey:       s.configStore.GetString(keyLLMAPIKey),
			MaxTokens:    s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			SystemPrompt: s.getString(keyLLMSystemPrompt, d.LLM.SystemPrompt),
		},
		Chat: domain.ChatSettings{
			HistoryLimit: s.getInt(keyChatHistoryLimit, d.Chat.HistoryLimit),
			Retrieval:    s.getBool(keyChatRetrieval, d.Chat.Retrieval),
		},
		Records: domain.RecordSettings{
			Driver: domain.RecordDriver(s.getString(keyRecordsDriver, string(d.Records.Driver))),
			DSN:    s.configStore.GetString(keyRecordsDSN),
		},
		Retry: domain.RetrySettings{
			MaxAttempts:       s.getInt(keyRetryMaxAttempts, d.Retry.MaxAttempts),
			BaseDelay:         s.getMillis(keyRetryBaseDelayMS, d.Retry.BaseDelay),
			MaxDelay:          s.getMillis(keyRetryMaxDelayMS, d.Retry.MaxDelay),
			RequestsPerSecond: s.getFloat(keyRetryRPS, d.Retry.RequestsPerSecond),
			Burst:             s.getInt(keyRetryBurst, d.Retry.Burst),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(keyServerAddr, d.Server.Addr),
			RequestTimeout: s.getSeconds(keyServerTimeoutSecs, d.Server.RequestTimeout),
		},
	}

	// Model defaults depend on the chosen provider.
	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	s.applyEnvironment(settings)
	return settings, nil
}

// applyEnvironment fills credentials and hosts the config file left empty.
func (s *SettingsService) applyEnvironment(settings *domain.AppSettings) {
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.apiKeyFor(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.apiKeyFor(settings.LLM.Provider)
	}

	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = s.ollamaHost()
	}
	if settings.LLM.Provider.IsLocal() && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = s.ollamaHost()
	}

	if settings.Records.Driver == domain.RecordDriverPostgres && settings.Records.DSN == "" {
		settings.Records.DSN = s.getenv(EnvDatabaseURL)
	}
}

func (s *SettingsService) apiKeyFor(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicKey)
	case domain.AIProviderGemini:
		if key := s.getenv(EnvGeminiKey); key != "" {
			return key
		}
		return s.getenv(EnvGoogleKey)
	default:
		return ""
	}
}

func (s *SettingsService) ollamaHost() string {
	host := s.getenv(EnvOllamaHost)
	if host == "" {
		return domain.DefaultOllamaBaseURL
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host
}

// Save persists application settings. API keys are only written when set,
// so keys supplied through the environment never end up in the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyDocumentPaths, settings.Documents.Paths},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyIndexDir, settings.Index.Dir},
		{keyIndexCollection, settings.Index.Collection},
		{keyIndexBatchSize, settings.Index.BatchSize},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMSystemPrompt, settings.LLM.SystemPrompt},
		{keyChatHistoryLimit, settings.Chat.HistoryLimit},
		{keyChatRetrieval, settings.Chat.Retrieval},
		{keyRecordsDriver, string(settings.Records.Driver)},
		{keyRecordsDSN, settings.Records.DSN},
		{keyRetryMaxAttempts, settings.Retry.MaxAttempts},
		{keyRetryBaseDelayMS, settings.Retry.BaseDelay.Milliseconds()},
		{keyRetryMaxDelayMS, settings.Retry.MaxDelay.Milliseconds()},
		{keyRetryRPS, settings.Retry.RequestsPerSecond},
		{keyRetryBurst, settings.Retry.Burst},
		{keyServerAddr, settings.Server.Addr},
		{keyServerTimeoutSecs, int(settings.Server.RequestTimeout.Seconds())},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
// An empty model selects the provider default.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model string) error {
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidConfiguration, provider)
	}
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	if err := s.configStore.Set(keyEmbedProvider, provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	return nil
}

// SetLLMProvider configures the LLM provider.
// An empty model selects the provider default.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidConfiguration, provider)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	if err := s.configStore.Set(keyLLMProvider, provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	return nil
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ConfigPath returns the path of the backing config file.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Millisecond
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	// Unknown providers are kept so Validate can report them.
	return domain.AIProvider(val)
}

// expandPath resolves a leading ~ to the user's home directory.
func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func expandPaths(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = expandPath(p)
	}
	return out
}
