package session

import (
	"context"
	"errors"
	"time"
)

// Channel identifies how a turn arrived.
type Channel string

const (
	ChannelText  Channel = "text"
	ChannelVoice Channel = "voice"
)

// ErrBusy means another turn for the same session is still in flight and
// the caller's wait budget ran out. Callers retry after a brief backoff.
var ErrBusy = errors.New("session busy")

// Interaction is one request-response exchange. Immutable once appended;
// intents are stored as plain strings so the store carries no model
// dependencies.
type Interaction struct {
	TurnID           string              `json:"turn_id"`
	SessionID        string              `json:"session_id"`
	Channel          Channel             `json:"channel"`
	RawInput         string              `json:"raw_input"`
	NormalizedText   string              `json:"normalized_text"`
	Intent           string              `json:"intent"`
	Confidence       float64             `json:"confidence"`
	Entities         map[string][]string `json:"entities,omitempty"`
	ResponseText     string              `json:"response_text"`
	ResponseAudioRef string              `json:"response_audio_ref,omitempty"`
	FlaggedFollowUp  bool                `json:"flagged_follow_up,omitempty"`
	ProcessingTimeMS int64               `json:"processing_time_ms"`
	Timestamp        time.Time           `json:"timestamp"`
}

// Session is the ordered history of one conversation. Created on first turn;
// re-created after eviction with no observable difference from new.
type Session struct {
	ID             string        `json:"session_id"`
	CreatedAt      time.Time     `json:"created_at"`
	LastActivityAt time.Time     `json:"last_activity_at"`
	Interactions   []Interaction `json:"interactions"`
}

// Store owns session histories. Appends within one session are linearized by
// the caller holding the session's turn lock; reads never fail for unknown
// ids since a fresh session is always valid.
type Store interface {
	GetOrCreate(ctx context.Context, sessionID string) (*Session, error)
	Append(ctx context.Context, sessionID string, in Interaction) error
	// Recent returns up to n interactions, oldest first, most recent last.
	// Unknown session ids yield an empty slice, not an error.
	Recent(ctx context.Context, sessionID string, n int) ([]Interaction, error)
	// EvictStale removes sessions idle past the inactivity window and
	// reports how many were dropped. Advisory cleanup, not correctness.
	EvictStale(ctx context.Context) (int, error)
	ActiveCount(ctx context.Context) (int, error)
	Close() error
}
