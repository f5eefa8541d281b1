// Package domain defines the core business entities for docchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceDocument: Raw text extracted from one configured file
//   - DocumentChunk: A retrievable window of a document with its embedding
//   - Corpus: The read-only chunk texts and embeddings used for retrieval
//   - ConversationTurn: One persisted question/answer exchange
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
