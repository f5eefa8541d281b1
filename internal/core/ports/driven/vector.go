package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// VectorIndex persists chunk texts and embeddings in named collections.
// Collections are append-only; chunk IDs are unique within a collection.
type VectorIndex interface {
	// EnsureCollection returns the named collection, creating it if absent.
	EnsureCollection(ctx context.Context, name string) (domain.Collection, error)

	// Add appends chunks to a collection. If any ID already exists in the
	// collection, or repeats within chunks, it returns domain.ErrDuplicateID
	// and stores nothing.
	Add(ctx context.Context, collection string, chunks []domain.DocumentChunk) error

	// Chunks returns every chunk of a collection in insertion order.
	Chunks(ctx context.Context, collection string) ([]domain.DocumentChunk, error)

	// Count returns the number of chunks in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases resources.
	Close() error
}
