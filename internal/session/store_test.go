package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestAppendThenRecentPreservesOrder(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		err := s.Append(ctx, "sess-1", Interaction{
			TurnID:   fmt.Sprintf("turn-%d", i),
			Channel:  ChannelText,
			RawInput: fmt.Sprintf("message %d", i),
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, "sess-1", n)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != n {
		t.Fatalf("Recent() len = %d, want %d", len(got), n)
	}
	for i, in := range got {
		if want := fmt.Sprintf("turn-%d", i); in.TurnID != want {
			t.Fatalf("Recent()[%d].TurnID = %q, want %q", i, in.TurnID, want)
		}
	}
}

func TestRecentUnknownSessionIsEmpty(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	got, err := s.Recent(context.Background(), "never-created", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v, want nil for unknown session", err)
	}
	if len(got) != 0 {
		t.Fatalf("Recent() = %v, want empty", got)
	}
}

func TestRecentBoundsToN(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_ = s.Append(ctx, "sess-1", Interaction{TurnID: fmt.Sprintf("turn-%d", i)})
	}
	got, err := s.Recent(ctx, "sess-1", 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() len = %d, want 3", len(got))
	}
	if got[2].TurnID != "turn-9" {
		t.Fatalf("most recent last: got %q, want turn-9", got[2].TurnID)
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	ctx := context.Background()

	first, err := s.GetOrCreate(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	second, err := s.GetOrCreate(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if first.ID != second.ID || !first.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("GetOrCreate() not idempotent: %+v vs %+v", first, second)
	}
}

func TestEvictStaleRemovesIdleSessions(t *testing.T) {
	s := NewInMemoryStore(10 * time.Millisecond)
	ctx := context.Background()
	_ = s.Append(ctx, "sess-1", Interaction{TurnID: "turn-0"})

	time.Sleep(30 * time.Millisecond)
	evicted, err := s.EvictStale(ctx)
	if err != nil {
		t.Fatalf("EvictStale() error = %v", err)
	}
	if evicted != 1 {
		t.Fatalf("evicted = %d, want 1", evicted)
	}

	// A re-created session is indistinguishable from new.
	got, err := s.Recent(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("evicted session should have empty history, got %v", got)
	}
}

func TestConcurrentAppendsAcrossSessions(t *testing.T) {
	s := NewInMemoryStore(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", g)
			for i := 0; i < 20; i++ {
				_ = s.Append(ctx, id, Interaction{TurnID: fmt.Sprintf("t-%d-%d", g, i)})
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 8; g++ {
		got, err := s.Recent(ctx, fmt.Sprintf("sess-%d", g), 0)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(got) != 20 {
			t.Fatalf("session %d has %d interactions, want 20", g, len(got))
		}
	}
}

func TestTurnLocksSerializeSameSession(t *testing.T) {
	locks := NewTurnLocks()
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "sess-1", time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r2, err := locks.Acquire(ctx, "sess-1", 5*time.Second)
		if err != nil {
			t.Errorf("second Acquire() error = %v", err)
			close(acquired)
			return
		}
		close(acquired)
		r2()
	}()

	select {
	case <-acquired:
		t.Fatalf("second turn acquired lock while first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second turn never acquired lock after release")
	}
}

func TestTurnLocksIndependentSessions(t *testing.T) {
	locks := NewTurnLocks()
	ctx := context.Background()

	r1, err := locks.Acquire(ctx, "sess-1", time.Second)
	if err != nil {
		t.Fatalf("Acquire(sess-1) error = %v", err)
	}
	defer r1()

	// A different session must not contend.
	r2, err := locks.Acquire(ctx, "sess-2", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire(sess-2) error = %v", err)
	}
	r2()
}

func TestTurnLocksBusyAfterBudget(t *testing.T) {
	locks := NewTurnLocks()
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "sess-1", time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer release()

	if _, err := locks.Acquire(ctx, "sess-1", 20*time.Millisecond); err != ErrBusy {
		t.Fatalf("Acquire() error = %v, want ErrBusy", err)
	}
}
