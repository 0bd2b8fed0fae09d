package analytics

import (
	"context"
	"log"
	"strings"
)

// NewLog picks the backend from DATABASE_URL, mirroring the session store:
// Postgres when configured, in-memory otherwise.
func NewLog(ctx context.Context, databaseURL string) (Log, error) {
	if strings.TrimSpace(databaseURL) == "" {
		log.Printf("analytics: using in-memory log (no DATABASE_URL)")
		return NewInMemoryLog(), nil
	}
	pg, err := NewPostgresLog(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	log.Printf("analytics: using postgres log")
	return pg, nil
}
