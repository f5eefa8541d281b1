package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc_0", ChunkID(0))
	assert.Equal(t, "doc_42", ChunkID(42))
}

func TestNewCorpus(t *testing.T) {
	chunks := []DocumentChunk{
		{ID: "doc_0", Text: "alpha", Embedding: []float32{1, 0}},
		{ID: "doc_1", Text: "beta", Embedding: []float32{0, 1}},
	}

	corpus := NewCorpus(chunks)

	assert.Equal(t, 2, corpus.Len())
	assert.Equal(t, []string{"alpha", "beta"}, corpus.Texts)
	assert.Equal(t, []float32{0, 1}, corpus.Embeddings[1])
	assert.Equal(t, 2, corpus.Dimensions())
}

func TestCorpus_Empty(t *testing.T) {
	var nilCorpus *Corpus
	assert.Equal(t, 0, nilCorpus.Len())
	assert.Equal(t, 0, nilCorpus.Dimensions())

	empty := NewCorpus(nil)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, empty.Dimensions())
}
