package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryLog keeps events in process memory. The default when no
// DATABASE_URL is configured; data does not survive restarts.
type InMemoryLog struct {
	mu       sync.RWMutex
	events   []Event
	feedback []Feedback
}

func NewInMemoryLog() *InMemoryLog { return &InMemoryLog{} }

func (l *InMemoryLog) Insert(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *InMemoryLog) Query(ctx context.Context, from, to time.Time) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, 0, len(l.events))
	for _, e := range l.events {
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *InMemoryLog) SaveFeedback(ctx context.Context, fb Feedback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.feedback = append(l.feedback, fb)
	return nil
}

// FeedbackCount is used by tests and the readiness probe.
func (l *InMemoryLog) FeedbackCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.feedback)
}

func (l *InMemoryLog) Close() error { return nil }
