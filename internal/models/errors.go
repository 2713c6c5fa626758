// ABOUTME: Sentinel errors shared by ingestion, retrieval, and generation
// ABOUTME: Callers wrap with %w and match with errors.Is
package models

import "errors"

var (
	// ErrEmptyCorpus means there were no documents (or no text) to index
	ErrEmptyCorpus = errors.New("empty corpus: no documents to index")

	// ErrEmbeddingService means the embedding service call failed
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrGenerationService means the language model call failed
	ErrGenerationService = errors.New("generation service error")

	// ErrInvalidK means a retrieval size below one was requested
	ErrInvalidK = errors.New("k must be a positive integer")

	// ErrIndexNotFound means no persisted index exists yet
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexIncompatible means the persisted index was built with another embedding model
	ErrIndexIncompatible = errors.New("index built with a different embedding model")
)
