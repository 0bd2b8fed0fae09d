package session

import (
	"context"
	"strings"
	"time"
)

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string, inactivityTimeout time.Duration) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(inactivityTimeout), nil
	}
	return NewPostgresStore(ctx, databaseURL, inactivityTimeout)
}
