package rag

import "errors"

var (
	// ErrInvalidInput means a request parameter is out of bounds or the text
	// is too short to process.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingUnavailable means the embedding backend was unreachable or
	// returned an error.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	// ErrGenerationEmpty means the model responded but nothing usable
	// survived parsing. Distinct from a transport failure so callers can show
	// a "try different text" message instead of "service down".
	ErrGenerationEmpty = errors.New("no usable output was generated")
)
