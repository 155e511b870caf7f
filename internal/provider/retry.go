package provider

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryEmbedder decorates an Embedder with a bounded exponential-backoff
// retry for transient failures. Malformed responses are permanent and
// never retried.
type RetryEmbedder struct {
	inner       Embedder
	maxAttempts uint64
}

func NewRetryEmbedder(inner Embedder, maxAttempts int) *RetryEmbedder {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryEmbedder{inner: inner, maxAttempts: uint64(maxAttempts)}
}

func (r *RetryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32

	operation := func() error {
		var err error
		vec, err = r.inner.Embed(ctx, text)
		if err != nil {
			if errors.Is(err, ErrResponse) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second

	policy := backoff.WithMaxRetries(backoff.WithContext(b, ctx), r.maxAttempts-1)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return vec, nil
}
