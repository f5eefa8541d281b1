// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - DocumentLoader: Reads configured files into raw text
//   - Normaliser: Extracts text from one file format (PDF, plain text)
//   - EmbeddingService: Converts text into vectors via an embedding API
//   - LLMService: Sends a chat-completion request and returns the answer
//   - VectorIndex: Persists chunk texts and embeddings in named collections
//   - ConversationStore: Append-only persistence of question/answer turns
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
