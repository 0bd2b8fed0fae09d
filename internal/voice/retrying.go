package voice

import (
	"context"
	"time"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/reliability"
)

const retryBackoff = 200 * time.Millisecond

// RetryingProvider wraps a Provider with a single retry on transient
// failures. The caller's ctx still bounds the whole attempt, so a retry never
// extends the turn budget.
type RetryingProvider struct {
	inner Provider
}

func WithRetry(inner Provider) *RetryingProvider {
	return &RetryingProvider{inner: inner}
}

func (p *RetryingProvider) Name() string { return p.inner.Name() }

func (p *RetryingProvider) Transcribe(ctx context.Context, wav []byte) (Transcript, error) {
	var out Transcript
	err := reliability.RetryOnce(ctx, retryBackoff, func(ctx context.Context) error {
		var err error
		out, err = p.inner.Transcribe(ctx, wav)
		return err
	})
	return out, err
}

func (p *RetryingProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var out []byte
	err := reliability.RetryOnce(ctx, retryBackoff, func(ctx context.Context) error {
		var err error
		out, err = p.inner.Synthesize(ctx, text)
		return err
	})
	return out, err
}

func (p *RetryingProvider) Close() error { return p.inner.Close() }
