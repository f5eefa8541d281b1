package domain

import (
	"fmt"
	"time"
)

// SourceDocument is the raw text extracted from one configured file.
type SourceDocument struct {
	// Path is the file the text was read from.
	Path string

	// Title is a human-readable name derived from the file name.
	Title string

	// MIMEType identifies the extractor that produced the text.
	MIMEType string

	// Text is the full extracted text.
	Text string
}

// DocumentChunk is a retrievable window of a source document.
// Chunks are immutable once created; IDs are unique within a collection.
type DocumentChunk struct {
	// ID is the collection-unique identifier (doc_<i>).
	ID string

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// Position is the ordinal of the chunk across the whole corpus.
	Position int

	// Source is the path of the parent document.
	Source string
}

// ChunkID returns the identifier for the chunk at the given corpus position.
func ChunkID(position int) string {
	return fmt.Sprintf("doc_%d", position)
}

// Collection is a named grouping of chunks in the vector index.
type Collection struct {
	// Name is the collection name.
	Name string

	// CreatedAt is when the collection was first created.
	CreatedAt time.Time
}

// Corpus is the in-memory, read-only view of an indexed collection that the
// retriever searches. Texts and Embeddings are parallel and in storage order.
type Corpus struct {
	Texts      []string
	Embeddings [][]float32
}

// NewCorpus builds a corpus from chunks, preserving their order.
func NewCorpus(chunks []DocumentChunk) *Corpus {
	c := &Corpus{
		Texts:      make([]string, len(chunks)),
		Embeddings: make([][]float32, len(chunks)),
	}
	for i := range chunks {
		c.Texts[i] = chunks[i].Text
		c.Embeddings[i] = chunks[i].Embedding
	}
	return c
}

// Len returns the number of chunks in the corpus.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Texts)
}

// Dimensions returns the embedding size, or 0 for an empty corpus.
func (c *Corpus) Dimensions() int {
	if c.Len() == 0 {
		return 0
	}
	return len(c.Embeddings[0])
}

// IndexStats summarises the state of the vector index.
type IndexStats struct {
	Collection string `json:"collection"`
	Chunks     int    `json:"chunks"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
}
