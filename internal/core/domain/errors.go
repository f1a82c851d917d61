package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthFailed indicates the source API rejected our credentials.
	// Never retried; the scope is marked failed immediately.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrObjectTypeNotFound indicates the source deployment does not have
	// the requested object type. Treated as zero records, not a failure.
	ErrObjectTypeNotFound = errors.New("object type not found")

	// ErrRateLimited indicates the source API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Nothing can be written without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates an embedding's length does not match
	// the configured index dimensionality. Vectors are rejected, never
	// padded or truncated.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
