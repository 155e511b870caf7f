package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/madhusudhankonda/ifi-chatbot/internal/provider"
)

type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key not configured", provider.ErrUnavailable)
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	return &Generator{client: client, model: model}, nil
}

func (g *Generator) Stream(ctx context.Context, messages []provider.Message, onDelta func(string) error) error {
	model := g.client.GenerativeModel(g.model)

	// Gemini carries the system prompt separately from the turn history.
	var history []*genai.Content
	var last string
	for _, m := range messages {
		switch m.Role {
		case "system":
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
		case "user", "assistant":
			role := m.Role
			if role == "assistant" {
				role = "model"
			}
			history = append(history, &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
				Role:  role,
			})
		}
	}
	if len(history) == 0 {
		return fmt.Errorf("%w: no user message to answer", provider.ErrResponse)
	}
	last = ""
	if txt, ok := history[len(history)-1].Parts[0].(genai.Text); ok {
		last = string(txt)
	}

	chat := model.StartChat()
	chat.History = history[:len(history)-1]

	iter := chat.SendMessageStream(ctx, genai.Text(last))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if txt, ok := part.(genai.Text); ok && len(txt) > 0 {
					if err := onDelta(string(txt)); err != nil {
						return err
					}
				}
			}
		}
	}
}

func (g *Generator) Close() error {
	return g.client.Close()
}
