package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// DocumentLoader reads the configured source files.
type DocumentLoader interface {
	// Load extracts the text of every path, in the order given.
	// A missing or unreadable path fails with domain.ErrInvalidConfiguration.
	Load(ctx context.Context, paths []string) ([]domain.SourceDocument, error)
}

// Normaliser extracts plain text from one file format.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise extracts the text content of a file.
	Normalise(ctx context.Context, path string, content []byte) (string, error)
}
