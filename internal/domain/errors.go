package domain

import "errors"

var (
	// ErrVectorDimMismatch signals a vector dimension mismatch. This is a
	// configuration error, never a retry condition.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrRerankProviderError signals a rerank scoring failure.
	ErrRerankProviderError = errors.New("rerank provider error")
)
