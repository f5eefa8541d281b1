package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// Retriever finds the single chunk most similar to a query.
// It performs a linear scan over the corpus, which is fine for the handful
// of documents this service is built for and does not scale beyond that.
type Retriever struct {
	embedder driven.EmbeddingService
	corpus   *domain.Corpus
}

// NewRetriever creates a retriever over a read-only corpus.
func NewRetriever(embedder driven.EmbeddingService, corpus *domain.Corpus) *Retriever {
	return &Retriever{
		embedder: embedder,
		corpus:   corpus,
	}
}

// Retrieve embeds the query and returns the text of the most similar chunk.
func (r *Retriever) Retrieve(ctx context.Context, query string) (string, error) {
	logger.Section("Retrieval")

	if r.corpus.Len() == 0 {
		return "", domain.ErrEmptyCorpus
	}
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	best, score, err := MostSimilar(vector, r.corpus.Embeddings)
	if err != nil {
		return "", err
	}

	logger.Debug("Best chunk: %d of %d (similarity %.4f)", best, r.corpus.Len(), score)
	return r.corpus.Texts[best], nil
}

// MostSimilar returns the index and cosine similarity of the embedding
// closest to query. Ties resolve to the lowest index.
func MostSimilar(query []float32, embeddings [][]float32) (int, float64, error) {
	if len(embeddings) == 0 {
		return -1, 0, domain.ErrEmptyCorpus
	}

	best := -1
	bestScore := math.Inf(-1)
	for i, e := range embeddings {
		if len(e) != len(query) {
			return -1, 0, fmt.Errorf("%w: embedding %d has %d dimensions, query has %d",
				domain.ErrInvalidInput, i, len(e), len(query))
		}
		score := CosineSimilarity(query, e)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore, nil
}

// CosineSimilarity returns dot(a,b)/(|a||b|). A zero vector has similarity 0
// with everything. The vectors must have equal length.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
