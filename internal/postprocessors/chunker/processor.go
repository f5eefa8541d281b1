// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Split cuts text into windows of chunkSize characters. Window k starts at
// k*(chunkSize-overlap); the last window is truncated at the end of text.
// Sizes count runes, so a multi-byte character is never split.
//
// Concatenating the first window with every later window minus its first
// overlap characters reproduces text exactly.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	// Byte offset of every rune start, plus len(text) as a sentinel.
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	runes := len(offsets)
	offsets = append(offsets, len(text))

	step := chunkSize - overlap
	chunks := make([]string, 0, runes/step+1)
	for start := 0; start < runes; start += step {
		end := min(start+chunkSize, runes)
		chunks = append(chunks, text[offsets[start]:offsets[end]])
	}
	return chunks, nil
}

func validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfiguration, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d",
			domain.ErrInvalidConfiguration, chunkSize, overlap)
	}
	return nil
}

// Processor splits documents into chunks with corpus-wide IDs.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrInvalidConfiguration if overlap >= chunk size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document text into chunks. Positions, and therefore IDs,
// start at offset so that chunks from several documents never collide.
func (p *Processor) Process(ctx context.Context, doc domain.SourceDocument, offset int) ([]domain.DocumentChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts, err := Split(doc.Text, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.DocumentChunk, len(texts))
	for i, text := range texts {
		position := offset + i
		chunks[i] = domain.DocumentChunk{
			ID:       domain.ChunkID(position),
			Text:     text,
			Position: position,
			Source:   doc.Path,
		}
	}
	return chunks, nil
}
