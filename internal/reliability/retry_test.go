package reliability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type transientErr struct{ msg string }

func (e transientErr) Error() string   { return e.msg }
func (e transientErr) Transient() bool { return true }

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Fatalf("nil should not be transient")
	}
	if IsTransient(errors.New("boom")) {
		t.Fatalf("plain error should not be transient")
	}
	if !IsTransient(transientErr{"busy"}) {
		t.Fatalf("marked error should be transient")
	}
	wrapped := fmt.Errorf("stage failed: %w", transientErr{"busy"})
	if !IsTransient(wrapped) {
		t.Fatalf("wrapped transient error should be transient")
	}
	if IsTransient(context.DeadlineExceeded) {
		t.Fatalf("deadline expiry should not be transient")
	}
}

func TestRetryOnceRetriesTransientOnly(t *testing.T) {
	calls := 0
	err := RetryOnce(context.Background(), time.Millisecond, func(context.Context) error {
		calls++
		if calls == 1 {
			return transientErr{"first attempt"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RetryOnce() error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}

	calls = 0
	permanent := errors.New("bad input")
	err = RetryOnce(context.Background(), time.Millisecond, func(context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("RetryOnce() error = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 for non-transient error", calls)
	}
}
