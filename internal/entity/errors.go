package entity

import "errors"

// Domain errors
var (
	// Document errors
	ErrDocumentNotFound  = errors.New("document not found")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrExtraction        = errors.New("text extraction failed")

	// Chunking errors
	ErrInvalidChunkConfig = errors.New("invalid chunking configuration")

	// Vector index errors
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// External service errors
	ErrEmbeddingService  = errors.New("embedding service unavailable")
	ErrQueryExpansion    = errors.New("query expansion failed")
	ErrGenerationService = errors.New("generation service failed")

	// File errors
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrInvalidExtension  = errors.New("invalid file extension")
	ErrTotalSizeTooLarge = errors.New("total file size too large")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)
