// Package loader reads the configured corpus files from disk and hands each
// one to the normaliser registered for its MIME type.
package loader

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/normalisers/docx"
	"github.com/custodia-labs/docchat/internal/normalisers/html"
	"github.com/custodia-labs/docchat/internal/normalisers/pdf"
	"github.com/custodia-labs/docchat/internal/normalisers/plaintext"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// extMIMETypes maps file extensions to MIME types for common types not in Go's registry.
var extMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".pdf":      "application/pdf",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".docx":     docx.MIMEType,
}

// Loader is a DocumentLoader backed by the local filesystem.
type Loader struct {
	normalisers map[string]driven.Normaliser
}

// New creates a loader with the given normalisers. With none, every
// built-in normaliser is registered.
func New(normalisers ...driven.Normaliser) *Loader {
	if len(normalisers) == 0 {
		normalisers = []driven.Normaliser{pdf.New(), plaintext.New(), html.New(), docx.New()}
	}

	l := &Loader{normalisers: make(map[string]driven.Normaliser)}
	for _, n := range normalisers {
		for _, mt := range n.SupportedMIMETypes() {
			l.normalisers[mt] = n
		}
	}
	return l
}

// Load reads every path in order and returns one document per path.
func (l *Loader) Load(ctx context.Context, paths []string) ([]domain.SourceDocument, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no document paths configured", domain.ErrInvalidConfiguration)
	}

	docs := make([]domain.SourceDocument, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := l.loadOne(ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded %s (%s, %d bytes of text)", path, doc.MIMEType, len(doc.Text))
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *Loader) loadOne(ctx context.Context, path string) (domain.SourceDocument, error) {
	mimeType := DetectMIMEType(path)
	normaliser, ok := l.normalisers[mimeType]
	if !ok {
		return domain.SourceDocument{}, fmt.Errorf("%w: %s: unsupported file type %s",
			domain.ErrInvalidConfiguration, path, mimeType)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("%w: read document: %w", domain.ErrInvalidConfiguration, err)
	}

	text, err := normaliser.Normalise(ctx, path, content)
	if err != nil {
		if ctx.Err() != nil {
			return domain.SourceDocument{}, err
		}
		return domain.SourceDocument{}, fmt.Errorf("%w: extract text: %w", domain.ErrInvalidConfiguration, err)
	}

	return domain.SourceDocument{
		Path:     path,
		Title:    ExtractTitle(path),
		MIMEType: mimeType,
		Text:     text,
	}, nil
}

// DetectMIMEType determines the MIME type from the file extension.
func DetectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}

	if t, ok := extMIMETypes[ext]; ok {
		return t
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType != "" {
		// Strip charset and other parameters.
		if idx := strings.Index(mimeType, ";"); idx != -1 {
			mimeType = strings.TrimSpace(mimeType[:idx])
		}
		return mimeType
	}

	return "application/octet-stream"
}

// ExtractTitle derives a human-readable title from a file path.
func ExtractTitle(path string) string {
	filename := filepath.Base(path)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return strings.TrimSpace(filename)
}
