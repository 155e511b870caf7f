package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/madhusudhankonda/ifi-chatbot/internal/middleware"
	"github.com/madhusudhankonda/ifi-chatbot/internal/provider"
	"github.com/madhusudhankonda/ifi-chatbot/internal/vector"
)

// Citation points a streamed answer back at the chunk that supported it.
// IDs are 1-based positions in the retrieved set, matching the [n]
// markers embedded in the prompt context.
type Citation struct {
	ID         int     `json:"id"`
	Filename   string  `json:"filename"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// Result carries the assembled prompt context alongside the citations
// that describe where each block came from.
type Result struct {
	Context   string
	Citations []Citation
}

type Service struct {
	embedder provider.Embedder
	store    vector.ChunkStore
	topK     int
	logger   *QueryLogger
}

func NewService(e provider.Embedder, s vector.ChunkStore, topK int, l *QueryLogger) *Service {
	if topK < 1 {
		topK = 5
	}
	return &Service{embedder: e, store: s, topK: topK, logger: l}
}

// Retrieve embeds the query, searches the chunk store, and assembles a
// numbered context block plus matching citations. Embedding or search
// failures propagate; the caller must not answer from an empty context
// it cannot distinguish from a failed lookup.
func (s *Service) Retrieve(ctx context.Context, query string) (*Result, error) {
	start := time.Now()

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.Search(ctx, embedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	res := &Result{Citations: make([]Citation, 0, len(hits))}

	var b strings.Builder
	for i, hit := range hits {
		id := i + 1
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n%s", id, hit.Filename, hit.Content)
		res.Citations = append(res.Citations, Citation{
			ID:         id,
			Filename:   hit.Filename,
			Content:    hit.Content,
			Similarity: hit.Similarity,
		})
	}
	res.Context = b.String()

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         query,
			NumResults:    len(hits),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	return res, nil
}
