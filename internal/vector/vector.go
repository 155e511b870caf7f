package vector

import (
	"context"
	"errors"
)

// ErrStorage wraps persistence failures; the current atomic operation is
// rolled back before it surfaces.
var ErrStorage = errors.New("vector storage error")

// MetadataChunkIndex is the one reserved metadata key: the zero-based
// position of the chunk among its siblings. Remaining keys are opaque
// pass-through data.
const MetadataChunkIndex = "chunkIndex"

// ChunkInsert is one chunk of an ingested document headed for storage.
type ChunkInsert struct {
	Content   string
	Embedding []float32
	Metadata  map[string]any
}

// SearchResult is a chunk returned from similarity search, annotated
// with the originating document's display name and similarity in [0, 1]
// (1 - cosine distance).
type SearchResult struct {
	ChunkID    int64
	DocumentID int64
	Content    string
	Filename   string
	Similarity float64
	Metadata   map[string]any
}

// ChunkStore persists chunks with embeddings and serves nearest-neighbor
// search over them. Search only considers chunks whose parent document
// has completed ingestion.
type ChunkStore interface {
	// InsertChunks persists the whole batch for one document or nothing.
	InsertChunks(ctx context.Context, documentID int64, chunks []ChunkInsert) error

	// Search returns up to k chunks ordered by decreasing cosine
	// similarity to the query embedding, ties broken by insertion order.
	Search(ctx context.Context, embedding []float32, k int) ([]SearchResult, error)

	// DeleteByDocument removes every chunk belonging to the document.
	// Deleting an unknown document is not an error.
	DeleteByDocument(ctx context.Context, documentID int64) error
}
