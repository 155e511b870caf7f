package provider

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the backing provider could not be reached
	// or is not configured.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrResponse indicates the provider answered with something unusable,
	// such as an embedding of the wrong dimensionality.
	ErrResponse = errors.New("malformed provider response")
)

// Message is one turn of a chat exchange handed to a Generator.
type Message struct {
	Role    string `json:"role"` // system, user or assistant
	Content string `json:"content"`
}

// Embedder turns text into a fixed-length vector. Implementations must
// return an error rather than a zero vector when the provider fails.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator streams a chat completion. onDelta is invoked for every text
// fragment in arrival order; returning an error from onDelta stops the
// stream and releases the provider connection.
type Generator interface {
	Stream(ctx context.Context, messages []Message, onDelta func(delta string) error) error
}
