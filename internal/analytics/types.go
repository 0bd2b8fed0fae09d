package analytics

import "time"

// Event is one denormalized interaction record. Events are append-only and
// carry the intent set version so rollups stay interpretable across label
// changes.
type Event struct {
	TurnID           string              `json:"turn_id"`
	SessionID        string              `json:"session_id"`
	Channel          string              `json:"channel"`
	Intent           string              `json:"intent"`
	IntentSetVersion string              `json:"intent_set_version"`
	Confidence       float64             `json:"confidence"`
	Entities         map[string][]string `json:"entities,omitempty"`
	Grounded         bool                `json:"grounded"`
	FlaggedFollowUp  bool                `json:"flagged_follow_up"`
	ProcessingTimeMS int64               `json:"processing_time_ms"`
	Timestamp        time.Time           `json:"timestamp"`
}

// Feedback is a user verdict on one assistant reply.
type Feedback struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	TurnID    string    `json:"turn_id,omitempty"`
	Type      string    `json:"feedback_type"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackTypes are the accepted values for Feedback.Type.
var FeedbackTypes = map[string]bool{
	"positive": true,
	"negative": true,
}

// IntentStat summarizes one intent label inside a rollup window.
type IntentStat struct {
	Count          int     `json:"count"`
	Percentage     float64 `json:"percentage"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Rollup is the aggregate returned by the analytics query endpoint.
type Rollup struct {
	From                 time.Time             `json:"from"`
	To                   time.Time             `json:"to"`
	TotalInteractions    int                   `json:"total_interactions"`
	UniqueSessions       int                   `json:"unique_sessions"`
	Intents              map[string]IntentStat `json:"intents"`
	Channels             map[string]int        `json:"channels"`
	Daily                map[string]int        `json:"daily"`
	Entities             map[string]int        `json:"entities"`
	FlaggedFollowUps     int                   `json:"flagged_follow_ups"`
	GroundedRate         float64               `json:"grounded_rate"`
	MeanProcessingTimeMS float64               `json:"mean_processing_time_ms"`
}
