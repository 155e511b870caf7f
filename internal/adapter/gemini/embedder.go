package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/madhusudhankonda/ifi-chatbot/internal/provider"
)

type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

func NewEmbedder(ctx context.Context, apiKey string, dimensions int, opts ...option.ClientOption) (*Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key not configured", provider.ErrUnavailable)
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	return &Embedder{client: client, model: "gemini-embedding-001", dimensions: dimensions}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", e.model, "length", len(text))

	em := e.client.EmbeddingModel(e.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding received", provider.ErrResponse)
	}
	if len(res.Embedding.Values) != e.dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", provider.ErrResponse, len(res.Embedding.Values), e.dimensions)
	}
	return res.Embedding.Values, nil
}

func (e *Embedder) Close() error {
	return e.client.Close()
}
