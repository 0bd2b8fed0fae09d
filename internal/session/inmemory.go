package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// InMemoryStore keeps session histories in process memory. Used for local
// runs and tests; the factory picks Postgres when DATABASE_URL is set.
type InMemoryStore struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	inactivityTimeout time.Duration
}

func NewInMemoryStore(inactivityTimeout time.Duration) *InMemoryStore {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 24 * time.Hour
	}
	return &InMemoryStore{
		sessions:          make(map[string]*Session),
		inactivityTimeout: inactivityTimeout,
	}
}

func (s *InMemoryStore) GetOrCreate(_ context.Context, sessionID string) (*Session, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &Session{ID: sessionID, CreatedAt: now, LastActivityAt: now}
		s.sessions[sessionID] = sess
	}
	return cloneSession(sess), nil
}

func (s *InMemoryStore) Append(_ context.Context, sessionID string, in Interaction) error {
	now := time.Now().UTC()
	if in.Timestamp.IsZero() {
		in.Timestamp = now
	}
	in.SessionID = sessionID

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &Session{ID: sessionID, CreatedAt: now}
		s.sessions[sessionID] = sess
	}
	sess.Interactions = append(sess.Interactions, in)
	sess.LastActivityAt = now
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, sessionID string, n int) ([]Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok || len(sess.Interactions) == 0 {
		return nil, nil
	}
	all := sess.Interactions
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	out := make([]Interaction, n)
	copy(out, all[len(all)-n:])
	return out, nil
}

func (s *InMemoryStore) EvictStale(_ context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.inactivityTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.LastActivityAt.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted, nil
}

func (s *InMemoryStore) ActiveCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

func (s *InMemoryStore) Close() error { return nil }

func cloneSession(sess *Session) *Session {
	c := *sess
	c.Interactions = make([]Interaction, len(sess.Interactions))
	copy(c.Interactions, sess.Interactions)
	return &c
}

// StartJanitor periodically evicts stale sessions until ctx is cancelled.
func StartJanitor(ctx context.Context, store Store, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.EvictStale(ctx)
				if err != nil {
					log.Printf("session janitor: evict failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("session janitor: evicted %d stale sessions", n)
				}
			}
		}
	}()
}
