package worker

import (
	"context"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type DocumentUpdater interface {
	UpdateStatus(ctx context.Context, id int64, status, errorMessage string, chunkCount int) error
}

// Extractor turns a stored upload into plain text.
type Extractor func(path, mimeType string) (string, error)
