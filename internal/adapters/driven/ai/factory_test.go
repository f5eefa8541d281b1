package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantErr  bool
		model    string
	}{
		{"nil settings", nil, true, ""},
		{"ollama", &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"}, false, "nomic-embed-text"},
		{"openai", &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"}, false, "text-embedding-ada-002"},
		{"openai without key", &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, true, ""},
		{"gemini without key", &domain.EmbeddingSettings{Provider: domain.AIProviderGemini}, true, ""},
		{"anthropic", &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}, true, ""},
		{"unknown", &domain.EmbeddingSettings{Provider: "cohere"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.model, svc.ModelName())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantErr  bool
		model    string
	}{
		{"nil settings", nil, true, ""},
		{"ollama", &domain.LLMSettings{Provider: domain.AIProviderOllama}, false, "llama3.2"},
		{"openai", &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o"}, false, "gpt-4o"},
		{"anthropic", &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}, false, "claude-3-5-haiku-latest"},
		{"anthropic without key", &domain.LLMSettings{Provider: domain.AIProviderAnthropic}, true, ""},
		{"gemini without key", &domain.LLMSettings{Provider: domain.AIProviderGemini}, true, ""},
		{"unknown", &domain.LLMSettings{Provider: "x"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.model, svc.ModelName())
		})
	}
}

func TestNewServices(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding.APIKey = "k"
	settings.LLM.APIKey = "k"

	result, err := NewServices(&settings)
	require.NoError(t, err)
	defer result.Close()

	assert.IsType(t, &ResilientEmbedding{}, result.EmbeddingService)
	assert.IsType(t, &ResilientLLM{}, result.LLMService)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", result.LLMService.ModelName())
}

func TestNewServices_Unavailable(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.LLM.APIKey = "k"

	_, err := NewServices(&settings)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	settings.Embedding.APIKey = "k"
	settings.LLM.Provider = domain.AIProviderAnthropic
	settings.LLM.APIKey = ""

	_, err = NewServices(&settings)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestInitResult_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}
	settings.LLM.Provider = domain.AIProviderOllama
	settings.LLM.BaseURL = srv.URL

	result, err := NewServices(&settings)
	require.NoError(t, err)
	assert.NoError(t, result.Ping(context.Background()))
}

func TestInitResult_Ping_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}
	settings.LLM.Provider = domain.AIProviderOllama
	settings.LLM.BaseURL = srv.URL

	result, err := NewServices(&settings)
	require.NoError(t, err)
	assert.ErrorIs(t, result.Ping(context.Background()), domain.ErrEmbeddingUnavailable)
}
