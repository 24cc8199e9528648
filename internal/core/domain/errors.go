package domain

import (
	"context"
	"errors"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Input Errors.

	// ErrUnsupportedFormat indicates bytes in a format the loader cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptedFile indicates a recognised format that failed to decode.
	ErrCorruptedFile = errors.New("corrupted file")

	// ErrEmptyContent indicates a document with no text after normalisation.
	ErrEmptyContent = errors.New("empty content")

	// ErrInvalidChunkConfig indicates a chunk size/overlap combination that cannot make progress.
	ErrInvalidChunkConfig = errors.New("invalid chunk config")

	// Provider Errors.

	// ErrEmbeddingProvider indicates the embedding provider failed.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Question answering is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrLanguageModelTimeout indicates the language model did not answer in time.
	ErrLanguageModelTimeout = errors.New("language model timeout")

	// ErrLanguageModel indicates the language model failed.
	ErrLanguageModel = errors.New("language model error")

	// ErrProviderTimeout indicates an embedding or NER provider call timed out.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedRequest indicates the provider rejected the request shape.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrAuthInvalid indicates the provider credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Consistency Errors.

	// ErrIndexNotReady indicates the document's vectors are missing or still building.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrUnknownSession indicates the session does not exist.
	ErrUnknownSession = errors.New("unknown session")

	// ErrUnknownDocument indicates the document does not exist.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrSessionDocumentMismatch indicates a session used with another document.
	ErrSessionDocumentMismatch = errors.New("session bound to another document")
)

// ErrorKind is the stable machine-readable error class.
type ErrorKind string

// Error kinds reported in structured errors.
const (
	KindUnsupportedFormat    ErrorKind = "UnsupportedFormat"
	KindCorruptedFile        ErrorKind = "CorruptedFile"
	KindEmptyContent         ErrorKind = "EmptyContent"
	KindInvalidChunkConfig   ErrorKind = "InvalidChunkConfig"
	KindInvalidInput         ErrorKind = "InvalidInput"
	KindEmbeddingProvider    ErrorKind = "EmbeddingProviderError"
	KindEmbeddingTimeout     ErrorKind = "EmbeddingTimeout"
	KindLanguageModelTimeout ErrorKind = "LanguageModelTimeout"
	KindLanguageModel        ErrorKind = "LanguageModelError"
	KindRateLimited          ErrorKind = "RateLimited"
	KindMalformedRequest     ErrorKind = "MalformedRequest"
	KindAuthInvalid          ErrorKind = "AuthInvalid"
	KindIndexNotReady        ErrorKind = "IndexNotReady"
	KindUnknownSession       ErrorKind = "UnknownSession"
	KindUnknownDocument      ErrorKind = "UnknownDocument"
	KindUnavailable          ErrorKind = "Unavailable"
	KindInternal             ErrorKind = "Internal"
)

// kindTable is checked in order; more specific sentinels come first.
var kindTable = []struct {
	err  error
	kind ErrorKind
}{
	{ErrLanguageModelTimeout, KindLanguageModelTimeout},
	{ErrProviderTimeout, KindEmbeddingTimeout},
	{ErrRateLimited, KindRateLimited},
	{ErrMalformedRequest, KindMalformedRequest},
	{ErrAuthInvalid, KindAuthInvalid},
	{ErrUnsupportedFormat, KindUnsupportedFormat},
	{ErrCorruptedFile, KindCorruptedFile},
	{ErrEmptyContent, KindEmptyContent},
	{ErrInvalidChunkConfig, KindInvalidChunkConfig},
	{ErrEmbeddingProvider, KindEmbeddingProvider},
	{ErrLanguageModel, KindLanguageModel},
	{ErrIndexNotReady, KindIndexNotReady},
	{ErrUnknownSession, KindUnknownSession},
	{ErrUnknownDocument, KindUnknownDocument},
	{ErrSessionDocumentMismatch, KindInvalidInput},
	{ErrInvalidInput, KindInvalidInput},
	{ErrEmbeddingUnavailable, KindUnavailable},
	{ErrLLMUnavailable, KindUnavailable},
}

// KindOf classifies an error. Unclassified errors are Internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kindTable {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindLanguageModelTimeout
	}
	return KindInternal
}

// IsTransient reports whether a provider error is worth retrying.
// Only timeouts and rate limits are transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrLanguageModelTimeout) ||
		errors.Is(err, ErrProviderTimeout)
}

// Error is the structured error body returned to callers.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// NewError converts an error into its structured form.
func NewError(err error) *Error {
	return &Error{Kind: KindOf(err), Message: err.Error()}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}
