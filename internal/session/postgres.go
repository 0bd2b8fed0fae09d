package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists session histories in PostgreSQL.
type PostgresStore struct {
	pool              *pgxpool.Pool
	inactivityTimeout time.Duration
}

func NewPostgresStore(ctx context.Context, databaseURL string, inactivityTimeout time.Duration) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	if inactivityTimeout <= 0 {
		inactivityTimeout = 24 * time.Hour
	}
	return &PostgresStore{pool: pool, inactivityTimeout: inactivityTimeout}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_activity_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS interactions (
			turn_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
			channel TEXT NOT NULL,
			raw_input TEXT NOT NULL,
			normalized_text TEXT NOT NULL,
			intent TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			entities JSONB,
			response_text TEXT NOT NULL,
			response_audio_ref TEXT,
			flagged_follow_up BOOLEAN NOT NULL DEFAULT FALSE,
			processing_time_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_session_created ON interactions (session_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON sessions (last_activity_at);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init session schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (session_id) VALUES ($1)
		 ON CONFLICT (session_id) DO UPDATE SET last_activity_at = sessions.last_activity_at
		 RETURNING session_id, created_at, last_activity_at`,
		sessionID,
	).Scan(&sess.ID, &sess.CreatedAt, &sess.LastActivityAt)
	if err != nil {
		return nil, fmt.Errorf("get or create session: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) Append(ctx context.Context, sessionID string, in Interaction) error {
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}
	entities, err := json.Marshal(in.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}

	if _, err := s.GetOrCreate(ctx, sessionID); err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO interactions
			(turn_id, session_id, channel, raw_input, normalized_text, intent, confidence,
			 entities, response_text, response_audio_ref, flagged_follow_up, processing_time_ms, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		in.TurnID, sessionID, string(in.Channel), in.RawInput, in.NormalizedText,
		in.Intent, in.Confidence, entities, in.ResponseText,
		nullable(in.ResponseAudioRef), in.FlaggedFollowUp, in.ProcessingTimeMS, in.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE sessions SET last_activity_at = now() WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, sessionID string, n int) ([]Interaction, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT turn_id, session_id, channel, raw_input, normalized_text, intent, confidence,
			entities, response_text, COALESCE(response_audio_ref, ''), flagged_follow_up,
			processing_time_ms, created_at
		 FROM interactions WHERE session_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		sessionID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent interactions: %w", err)
	}
	defer rows.Close()

	items := make([]Interaction, 0, n)
	for rows.Next() {
		var (
			in       Interaction
			channel  string
			entities []byte
		)
		if err := rows.Scan(&in.TurnID, &in.SessionID, &channel, &in.RawInput, &in.NormalizedText,
			&in.Intent, &in.Confidence, &entities, &in.ResponseText, &in.ResponseAudioRef,
			&in.FlaggedFollowUp, &in.ProcessingTimeMS, &in.Timestamp); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		in.Channel = Channel(channel)
		if len(entities) > 0 {
			if err := json.Unmarshal(entities, &in.Entities); err != nil {
				return nil, fmt.Errorf("unmarshal entities: %w", err)
			}
		}
		items = append(items, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction rows: %w", err)
	}

	// Reverse into chronological order, most recent last.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (s *PostgresStore) EvictStale(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE last_activity_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int(s.inactivityTimeout.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("evict stale sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ActiveCount(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
