package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/madhusudhankonda/ifi-chatbot/internal/provider"
)

// Embedder produces fixed-dimensionality vectors via the OpenAI
// embeddings API. The requested dimensionality is pinned so the stored
// vectors always match the vector column width.
type Embedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

func NewEmbedder(apiKey, baseURL, model string, dimensions int) (*Embedder, error) {
	if !strings.HasPrefix(apiKey, "sk-") {
		return nil, fmt.Errorf("%w: OpenAI API key not configured", provider.ErrUnavailable)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", provider.ErrResponse)
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Embedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     e.dimensions,
	})
	if err != nil {
		slog.ErrorContext(ctx, "embedding request failed", "model", e.model, "error", err)
		return nil, classify(err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", provider.ErrResponse)
	}
	vec := resp.Data[0].Embedding
	if len(vec) != e.dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", provider.ErrResponse, len(vec), e.dimensions)
	}
	return vec, nil
}

// classify maps OpenAI client errors onto the provider taxonomy.
// API-level rejections of the request body are malformed-usage errors;
// everything else (network, 5xx, 429, auth) means the provider cannot
// serve us right now.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 400 {
			return fmt.Errorf("%w: %v", provider.ErrResponse, err)
		}
		return fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
}
