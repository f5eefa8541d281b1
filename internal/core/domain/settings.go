package domain

import (
	"errors"
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider exposes an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// RecordDriver selects the Record Store backend.
type RecordDriver string

// Available record store drivers.
const (
	// RecordDriverSQLite stores turns in the same SQLite file as the index.
	RecordDriverSQLite RecordDriver = "sqlite"

	// RecordDriverPostgres stores turns in a PostgreSQL database.
	RecordDriverPostgres RecordDriver = "postgres"

	// RecordDriverMemory keeps turns in process memory only.
	RecordDriverMemory RecordDriver = "memory"
)

// IsValid returns true if the driver is recognised.
func (d RecordDriver) IsValid() bool {
	switch d {
	case RecordDriverSQLite, RecordDriverPostgres, RecordDriverMemory:
		return true
	default:
		return false
	}
}

// DocumentSettings lists the files that make up the corpus.
type DocumentSettings struct {
	Paths []string
}

// ChunkingSettings controls the fixed-size chunker.
type ChunkingSettings struct {
	// Size is the window length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive windows.
	Overlap int
}

// IndexSettings locates the vector index on disk.
type IndexSettings struct {
	// Dir is the data directory holding the SQLite database.
	Dir string

	// Collection is the collection name within the index.
	Collection string

	// BatchSize is the number of chunk texts sent per embedding call.
	BatchSize int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or an OpenAI-compatible gateway).
	BaseURL string

	// APIKey is the API key (for OpenAI or Gemini).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI, Anthropic or Gemini).
	APIKey string

	// MaxTokens caps the answer length.
	MaxTokens int

	// SystemPrompt is the fixed system instruction sent with every question.
	SystemPrompt string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChatSettings controls how a turn is assembled.
type ChatSettings struct {
	// HistoryLimit is how many recent turns are used as conversational context.
	HistoryLimit int

	// Retrieval enables document retrieval for each question.
	Retrieval bool
}

// RecordSettings selects where conversation turns are persisted.
type RecordSettings struct {
	Driver RecordDriver
	DSN    string
}

// RetrySettings controls retries and client-side rate limiting of provider calls.
type RetrySettings struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestsPerSecond float64
	Burst             int
}

// ServerSettings configures the HTTP adapter.
type ServerSettings struct {
	Addr           string
	RequestTimeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Documents DocumentSettings
	Chunking  ChunkingSettings
	Index     IndexSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chat      ChatSettings
	Records   RecordSettings
	Retry     RetrySettings
	Server    ServerSettings
}

// Validate checks settings for consistency. Every problem is reported;
// the returned error wraps ErrInvalidConfiguration.
func (s *AppSettings) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if len(s.Documents.Paths) == 0 {
		add("documents.paths is empty")
	}
	if s.Chunking.Size <= 0 {
		add("chunking.size must be positive, got %d", s.Chunking.Size)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		add("chunking.overlap must be in [0, %d), got %d", s.Chunking.Size, s.Chunking.Overlap)
	}
	if s.Index.Collection == "" {
		add("index.collection is empty")
	}
	if s.Index.BatchSize <= 0 {
		add("index.batch_size must be positive, got %d", s.Index.BatchSize)
	}
	if !s.Embedding.Provider.SupportsEmbeddings() {
		add("embedding.provider %q does not support embeddings", s.Embedding.Provider)
	} else if !s.Embedding.IsConfigured() {
		add("embedding.api_key is required for %s", s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		add("llm.provider %q is not recognised", s.LLM.Provider)
	} else if !s.LLM.IsConfigured() {
		add("llm.api_key is required for %s", s.LLM.Provider)
	}
	if s.LLM.MaxTokens <= 0 {
		add("llm.max_tokens must be positive, got %d", s.LLM.MaxTokens)
	}
	if !s.Records.Driver.IsValid() {
		add("records.driver %q is not recognised", s.Records.Driver)
	}
	if s.Records.Driver == RecordDriverPostgres && s.Records.DSN == "" {
		add("records.dsn is required for postgres")
	}
	if s.Retry.MaxAttempts <= 0 {
		add("retry.max_attempts must be positive, got %d", s.Retry.MaxAttempts)
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errors.Join(problems...))
}

// Default values used when a key is absent from the config file.
const (
	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 200
	DefaultCollection    = "my_collection"
	DefaultBatchSize     = 64
	DefaultMaxTokens     = 100
	DefaultSystemPrompt  = "You are a support assistant."
	DefaultServerAddr    = ":8000"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

// DefaultAppSettings returns settings with sensible defaults.
// API keys are not set; they come from the environment or the config file.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Index: IndexSettings{
			Collection: DefaultCollection,
			BatchSize:  DefaultBatchSize,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider:     AIProviderOpenAI,
			Model:        DefaultLLMModels()[AIProviderOpenAI],
			MaxTokens:    DefaultMaxTokens,
			SystemPrompt: DefaultSystemPrompt,
		},
		Chat: ChatSettings{
			HistoryLimit: DefaultHistoryLimit,
			Retrieval:    true,
		},
		Records: RecordSettings{
			Driver: RecordDriverSQLite,
		},
		Retry: RetrySettings{
			MaxAttempts:       4,
			BaseDelay:         200 * time.Millisecond,
			MaxDelay:          5 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Server: ServerSettings{
			Addr:           DefaultServerAddr,
			RequestTimeout: 60 * time.Second,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-ada-002",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini-2024-07-18",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}
