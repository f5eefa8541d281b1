package domain

import (
	"errors"
	"net/http"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input, including input
	// a provider rejected (empty text, oversized batch).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration indicates missing or inconsistent settings:
	// unreadable document paths, overlap >= chunk size, a missing API key.
	// It is fatal at startup.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrTransient indicates a network failure or provider 5xx. Retryable.
	ErrTransient = errors.New("transient provider failure")

	// ErrThrottled indicates the provider rate limited the request. Retryable.
	ErrThrottled = errors.New("rate limited")

	// ErrEmptyCorpus indicates retrieval was requested with no stored chunks.
	ErrEmptyCorpus = errors.New("corpus is empty")

	// ErrDuplicateID indicates a chunk id already exists in the collection.
	ErrDuplicateID = errors.New("duplicate chunk id")

	// ErrLLMUnavailable indicates the chat-completion provider is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ErrorForStatus maps an HTTP status code returned by a provider API to the
// domain error kind. Returns nil for 2xx codes.
func ErrorForStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return ErrThrottled
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrInvalidConfiguration
	case code == http.StatusRequestTimeout || code >= 500:
		return ErrTransient
	case code >= 400:
		return ErrInvalidInput
	default:
		return ErrTransient
	}
}

// IsRetryable reports whether err is worth retrying after a backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrThrottled)
}

// ErrorKind names the domain kind of err for logging.
// Unclassified errors are reported as "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrEmptyCorpus):
		return "empty_corpus"
	case errors.Is(err, ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrLLMUnavailable), errors.Is(err, ErrEmbeddingUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}
