package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestVectors(t *testing.T) {
	resp := &genai.BatchEmbedContentsResponse{
		Embeddings: []*genai.ContentEmbedding{
			{Values: []float32{0.1, 0.2}},
			{Values: []float32{0.3, 0.4}},
		},
	}

	vectors, err := Vectors(resp, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vectors)
}

func TestVectors_Mismatch(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.BatchEmbedContentsResponse
	}{
		{"nil response", nil},
		{"too few", &genai.BatchEmbedContentsResponse{Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}}}},
		{"empty vector", &genai.BatchEmbedContentsResponse{Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}, {}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Vectors(tt.resp, 2)
			assert.ErrorIs(t, err, domain.ErrTransient)
		})
	}
}
