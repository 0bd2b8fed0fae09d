package reliability

import (
	"context"
	"errors"
	"time"
)

// Transient marks errors that are worth a bounded retry.
type Transient interface {
	Transient() bool
}

// IsTransient reports whether any error in the chain is marked transient.
// Context cancellation and deadline expiry are never transient: the caller's
// budget is spent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t Transient
	return errors.As(err, &t) && t.Transient()
}

// RetryOnce runs fn and, when it fails with a transient error, retries exactly
// once after a short backoff. Non-transient failures return immediately.
func RetryOnce(ctx context.Context, backoff time.Duration, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || !IsTransient(err) {
		return err
	}
	select {
	case <-ctx.Done():
		return err
	case <-time.After(backoff):
	}
	return fn(ctx)
}
