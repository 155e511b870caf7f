package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/madhusudhankonda/ifi-chatbot/internal/provider"
)

// Generator streams chat completions token by token.
type Generator struct {
	client *openai.Client
	model  string
}

func NewGenerator(apiKey, baseURL, model string) (*Generator, error) {
	if !strings.HasPrefix(apiKey, "sk-") {
		return nil, fmt.Errorf("%w: OpenAI API key not configured", provider.ErrUnavailable)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Generator{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (g *Generator) Stream(ctx context.Context, messages []provider.Message, onDelta func(string) error) error {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   1000,
		Stream:      true,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return classify(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			if err := onDelta(delta); err != nil {
				return err
			}
		}
	}
}
