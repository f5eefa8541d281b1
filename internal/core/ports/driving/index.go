package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// IndexService builds or loads the document corpus before requests are served.
type IndexService interface {
	// Build loads the configured collection, indexing the documents first
	// if the collection is empty.
	Build(ctx context.Context) (*domain.Corpus, error)

	// Stats reports the size of the collection.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}
