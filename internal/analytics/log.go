package analytics

import (
	"context"
	"math"
	"time"
)

// Log persists analytics events and feedback. Query returns events whose
// timestamp falls in [from, to).
type Log interface {
	Insert(ctx context.Context, event Event) error
	Query(ctx context.Context, from, to time.Time) ([]Event, error)
	SaveFeedback(ctx context.Context, fb Feedback) error
	Close() error
}

// Summarize folds a window of events into a Rollup. Pure aggregation; the
// store only has to return raw rows.
func Summarize(events []Event, from, to time.Time) Rollup {
	r := Rollup{
		From:     from,
		To:       to,
		Intents:  map[string]IntentStat{},
		Channels: map[string]int{},
		Daily:    map[string]int{},
		Entities: map[string]int{},
	}

	sessions := map[string]struct{}{}
	confidenceSums := map[string]float64{}
	var processingSum float64
	var grounded int

	for _, e := range events {
		r.TotalInteractions++
		sessions[e.SessionID] = struct{}{}

		stat := r.Intents[e.Intent]
		stat.Count++
		r.Intents[e.Intent] = stat
		confidenceSums[e.Intent] += e.Confidence

		r.Channels[e.Channel]++
		r.Daily[e.Timestamp.UTC().Format("2006-01-02")]++
		for entityType, values := range e.Entities {
			r.Entities[entityType] += len(values)
		}
		if e.FlaggedFollowUp {
			r.FlaggedFollowUps++
		}
		if e.Grounded {
			grounded++
		}
		processingSum += float64(e.ProcessingTimeMS)
	}

	r.UniqueSessions = len(sessions)
	if r.TotalInteractions > 0 {
		n := float64(r.TotalInteractions)
		for intent, stat := range r.Intents {
			stat.Percentage = round2(float64(stat.Count) / n * 100)
			stat.MeanConfidence = round2(confidenceSums[intent] / float64(stat.Count))
			r.Intents[intent] = stat
		}
		r.GroundedRate = round2(float64(grounded) / n)
		r.MeanProcessingTimeMS = round2(processingSum / n)
	}
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
