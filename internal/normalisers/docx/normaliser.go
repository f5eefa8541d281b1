// Package docx extracts the paragraph text of Word (.docx) documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the registered type of Office Open XML word documents.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const documentPart = "word/document.xml"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Normalise returns one line per non-empty paragraph of the main document
// part. Headers, footers and comments are not included.
func (n *Normaliser) Normalise(_ context.Context, path string, content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a docx archive: %w", domain.ErrInvalidInput, path, err)
	}

	part, err := reader.Open(documentPart)
	if err != nil {
		return "", fmt.Errorf("%w: %s has no %s", domain.ErrInvalidInput, path, documentPart)
	}
	defer part.Close()

	text, err := paragraphs(part)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
	}
	return text, nil
}

type body struct {
	Paragraphs []paragraph `xml:"body>p"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []string   `xml:"t"`
	Tabs []struct{} `xml:"tab"`
}

func paragraphs(r io.Reader) (string, error) {
	var doc body
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}

	lines := make([]string, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for range r.Tabs {
				b.WriteByte('\t')
			}
			for _, t := range r.Text {
				b.WriteString(t)
			}
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
