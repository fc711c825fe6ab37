// Package knowledge stores document chunks and their embedding vectors
// in PostgreSQL with pgvector, and answers nearest-neighbour queries by
// cosine distance.
package knowledge

import "errors"

// VectorDimension is the embedding size the chunks table is declared with.
const VectorDimension = 1536

// Sentinel errors returned by the store.
var (
	ErrDuplicateID  = errors.New("duplicate chunk id")
	ErrDimension    = errors.New("embedding dimension mismatch")
	ErrEmptyID      = errors.New("chunk id is empty")
	ErrInvalidLimit = errors.New("result limit must be positive")
)

// Chunk is one indexed piece of a document, with its embedding.
type Chunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Embedding  []float32         `json:"-"`
}

// Result is one nearest-neighbour hit. Distance is cosine distance, so
// smaller means more similar.
type Result struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}

// DocumentInfo summarizes one indexed document.
type DocumentInfo struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}
