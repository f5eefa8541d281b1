package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Chunker splits a source document into retrievable chunks.
type Chunker interface {
	// Name returns the processor name for logging.
	Name() string

	// Process splits doc into chunks whose positions start at offset.
	Process(ctx context.Context, doc domain.SourceDocument, offset int) ([]domain.DocumentChunk, error)
}
