package session

import (
	"context"
	"sync"
	"time"
)

// TurnLocks linearizes turns per session id. Concurrent turns on the same
// session queue in arrival order; turns on different sessions never contend.
// A waiter that exhausts its budget gets ErrBusy instead of blocking the
// request indefinitely.
type TurnLocks struct {
	mu      sync.Mutex
	waiters map[string]chan struct{}
	holders map[string]int
}

func NewTurnLocks() *TurnLocks {
	return &TurnLocks{
		waiters: make(map[string]chan struct{}),
		holders: make(map[string]int),
	}
}

// Acquire takes the turn lock for sessionID, waiting up to budget for the
// in-flight turn to finish. The returned release function must be called
// exactly once.
func (l *TurnLocks) Acquire(ctx context.Context, sessionID string, budget time.Duration) (func(), error) {
	timer := time.NewTimer(budget)
	defer timer.Stop()

	for {
		l.mu.Lock()
		if l.holders[sessionID] == 0 {
			l.holders[sessionID] = 1
			if l.waiters[sessionID] == nil {
				l.waiters[sessionID] = make(chan struct{}, 1)
			}
			l.mu.Unlock()
			return func() { l.release(sessionID) }, nil
		}
		wake := l.waiters[sessionID]
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, ErrBusy
		case <-wake:
			// Holder released; loop and race for the lock in arrival order
			// of wakeups.
		}
	}
}

func (l *TurnLocks) release(sessionID string) {
	l.mu.Lock()
	l.holders[sessionID] = 0
	wake := l.waiters[sessionID]
	l.mu.Unlock()

	select {
	case wake <- struct{}{}:
	default:
	}
}
