package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLog persists analytics events and feedback in PostgreSQL.
type PostgresLog struct {
	pool *pgxpool.Pool
}

func NewPostgresLog(ctx context.Context, databaseURL string) (*PostgresLog, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresLog{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analytics_events (
			turn_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			intent TEXT NOT NULL,
			intent_set_version TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			entities JSONB,
			grounded BOOLEAN NOT NULL DEFAULT FALSE,
			flagged_follow_up BOOLEAN NOT NULL DEFAULT FALSE,
			processing_time_ms BIGINT NOT NULL DEFAULT 0,
			ts TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_events_ts ON analytics_events (ts);`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			turn_id TEXT,
			feedback_type TEXT NOT NULL,
			comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init analytics schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (l *PostgresLog) Insert(ctx context.Context, event Event) error {
	entities, err := json.Marshal(event.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO analytics_events
			(turn_id, session_id, channel, intent, intent_set_version, confidence,
			 entities, grounded, flagged_follow_up, processing_time_ms, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (turn_id) DO NOTHING`,
		event.TurnID, event.SessionID, event.Channel, event.Intent,
		event.IntentSetVersion, event.Confidence, entities, event.Grounded,
		event.FlaggedFollowUp, event.ProcessingTimeMS, event.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

func (l *PostgresLog) Query(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT turn_id, session_id, channel, intent, intent_set_version, confidence,
			entities, grounded, flagged_follow_up, processing_time_ms, ts
		 FROM analytics_events WHERE ts >= $1 AND ts < $2 ORDER BY ts`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query analytics events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var entities []byte
		if err := rows.Scan(&e.TurnID, &e.SessionID, &e.Channel, &e.Intent,
			&e.IntentSetVersion, &e.Confidence, &entities, &e.Grounded,
			&e.FlaggedFollowUp, &e.ProcessingTimeMS, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan analytics row: %w", err)
		}
		if len(entities) > 0 {
			if err := json.Unmarshal(entities, &e.Entities); err != nil {
				return nil, fmt.Errorf("decode entities: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analytics rows: %w", err)
	}
	return events, nil
}

func (l *PostgresLog) SaveFeedback(ctx context.Context, fb Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO feedback (id, session_id, turn_id, feedback_type, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		fb.ID, fb.SessionID, nullable(fb.TurnID), fb.Type, nullable(fb.Comment), fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

func (l *PostgresLog) Close() error {
	l.pool.Close()
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
