package analytics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/observability"
)

const insertTimeout = 5 * time.Second

// Recorder decouples the request path from analytics persistence: Record
// never blocks a turn. Events flow through a bounded queue to a single
// worker; when the queue is full the event is dropped and counted.
type Recorder struct {
	log     Log
	metrics *observability.Metrics

	queue chan Event
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewRecorder(logStore Log, queueSize int, metrics *observability.Metrics) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &Recorder{
		log:     logStore,
		metrics: metrics,
		queue:   make(chan Event, queueSize),
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

// Record enqueues an event, dropping it when the queue is full or the
// recorder is closed. Fire and forget.
func (r *Recorder) Record(event Event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.count("dropped")
		return
	}
	select {
	case r.queue <- event:
		r.mu.Unlock()
	default:
		r.mu.Unlock()
		r.count("dropped")
		log.Printf("analytics: queue full, dropped event turn=%s", event.TurnID)
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for event := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		err := r.log.Insert(ctx, event)
		cancel()
		if err != nil {
			r.count("failed")
			log.Printf("analytics: insert failed turn=%s: %v", event.TurnID, err)
			continue
		}
		r.count("stored")
	}
}

// Close stops intake and drains everything already queued.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) count(status string) {
	if r.metrics != nil {
		r.metrics.AnalyticsEvents.WithLabelValues(status).Inc()
	}
}
