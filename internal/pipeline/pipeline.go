package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/analytics"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/audio"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/dialogue"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/knowledge"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/nlu"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/observability"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/policy"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/session"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/voice"
)

var (
	// ErrVoiceUnavailable means no speech provider was configured or it
	// failed to load; voice turns are rejected while text turns keep working.
	ErrVoiceUnavailable = errors.New("voice provider unavailable")
)

// InputError rejects a malformed request before any side effects.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "invalid input: " + e.Reason }

// Options carries the per-stage budgets and limits from config.
type Options struct {
	HistoryLimit      int
	RetrievalTopK     int
	BusyTimeout       time.Duration
	ClassifyTimeout   time.Duration
	RetrieveTimeout   time.Duration
	TranscribeTimeout time.Duration
	SynthesizeTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 10
	}
	if o.RetrievalTopK <= 0 {
		o.RetrievalTopK = 3
	}
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = 10 * time.Second
	}
	if o.ClassifyTimeout <= 0 {
		o.ClassifyTimeout = 2 * time.Second
	}
	if o.RetrieveTimeout <= 0 {
		o.RetrieveTimeout = 2 * time.Second
	}
	if o.TranscribeTimeout <= 0 {
		o.TranscribeTimeout = 30 * time.Second
	}
	if o.SynthesizeTimeout <= 0 {
		o.SynthesizeTimeout = 30 * time.Second
	}
	return o
}

// TurnResult is what a completed turn exposes to the transport layer.
type TurnResult struct {
	SessionID  string
	TurnID     string
	Response   string
	Intent     string
	Confidence float64
	// Transcript and AudioRef are set on voice turns only. AudioRef stays
	// empty when synthesis degraded; the text response is still delivered.
	Transcript string
	AudioRef   string
	Timestamp  time.Time
}

// Orchestrator runs the per-turn stage sequence: transcribe (voice), classify,
// retrieve, respond, synthesize (voice), persist, record. Models are shared
// and read-only; per-session ordering comes from the turn locks.
type Orchestrator struct {
	classifier *nlu.Classifier
	retriever  *knowledge.Retriever
	manager    *dialogue.Manager
	store      session.Store
	locks      *session.TurnLocks
	provider   voice.Provider
	audioStore *audio.Store
	recorder   *analytics.Recorder
	metrics    *observability.Metrics
	opts       Options
}

func New(
	classifier *nlu.Classifier,
	retriever *knowledge.Retriever,
	manager *dialogue.Manager,
	store session.Store,
	provider voice.Provider,
	audioStore *audio.Store,
	recorder *analytics.Recorder,
	metrics *observability.Metrics,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		retriever:  retriever,
		manager:    manager,
		store:      store,
		locks:      session.NewTurnLocks(),
		provider:   provider,
		audioStore: audioStore,
		recorder:   recorder,
		metrics:    metrics,
		opts:       opts.withDefaults(),
	}
}

// VoiceEnabled reports whether voice turns can be served.
func (o *Orchestrator) VoiceEnabled() bool { return o.provider != nil }

// ProcessText runs one text turn. Returns session.ErrBusy when another turn
// for the same session holds the lock past the busy budget.
func (o *Orchestrator) ProcessText(ctx context.Context, sessionID, message string) (TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return TurnResult{}, &InputError{Reason: "message is empty"}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	release, err := o.locks.Acquire(ctx, sessionID, o.opts.BusyTimeout)
	if err != nil {
		return TurnResult{}, err
	}
	defer release()

	return o.runTurn(ctx, sessionID, session.ChannelText, message, message)
}

// ProcessVoice transcribes the utterance, runs the text turn, and synthesizes
// the reply. STT failure degrades to a reprompt; synthesis failure omits the
// audio but keeps the text.
func (o *Orchestrator) ProcessVoice(ctx context.Context, sessionID string, wav []byte) (TurnResult, error) {
	if len(wav) == 0 {
		return TurnResult{}, &InputError{Reason: "audio payload is empty"}
	}
	if o.provider == nil {
		return TurnResult{}, ErrVoiceUnavailable
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	release, err := o.locks.Acquire(ctx, sessionID, o.opts.BusyTimeout)
	if err != nil {
		return TurnResult{}, err
	}
	defer release()

	transcript, err := o.transcribe(ctx, wav)
	if err != nil {
		var te *voice.TranscriptionError
		if errors.As(err, &te) && !te.Retryable {
			return TurnResult{}, &InputError{Reason: te.Detail}
		}
		if ctx.Err() != nil {
			return TurnResult{}, ctx.Err()
		}
		// Degrade: reprompt instead of failing the turn.
		o.observeDegradation("stt_failed")
		log.Printf("pipeline: transcription failed session=%s: %v", sessionID, err)
		return o.repromptTurn(ctx, sessionID)
	}
	if strings.TrimSpace(transcript.Text) == "" {
		o.observeDegradation("stt_empty")
		return o.repromptTurn(ctx, sessionID)
	}

	result, err := o.runTurn(ctx, sessionID, session.ChannelVoice, "<audio>", transcript.Text)
	if err != nil {
		return TurnResult{}, err
	}
	result.Transcript = transcript.Text
	return result, nil
}

// repromptTurn emits a clarification reply for unusable audio. The turn is
// still persisted so analytics sees the failure.
func (o *Orchestrator) repromptTurn(ctx context.Context, sessionID string) (TurnResult, error) {
	const reprompt = "I'm sorry, I couldn't make out what you said. Could you repeat that, or type your question instead?"
	result := TurnResult{
		SessionID:  sessionID,
		TurnID:     uuid.NewString(),
		Response:   reprompt,
		Intent:     string(nlu.IntentUnknown),
		Confidence: 0,
		Timestamp:  time.Now().UTC(),
	}
	if audioRef, ok := o.synthesize(ctx, result.Response); ok {
		result.AudioRef = audioRef
	}
	o.persist(ctx, result, session.ChannelVoice, "<audio>", "", nil, false, false, 0)
	o.countTurn(session.ChannelVoice, "degraded")
	return result, nil
}

func (o *Orchestrator) runTurn(ctx context.Context, sessionID string, channel session.Channel, rawInput, text string) (TurnResult, error) {
	started := time.Now()

	if _, err := o.store.GetOrCreate(ctx, sessionID); err != nil {
		return TurnResult{}, fmt.Errorf("session: %w", err)
	}
	history, err := o.store.Recent(ctx, sessionID, o.opts.HistoryLimit)
	if err != nil {
		return TurnResult{}, fmt.Errorf("session history: %w", err)
	}

	cls := o.classify(ctx, text)

	var chunks []knowledge.Scored
	if cls.Intent.IsFAQIntent() {
		chunks = o.retrieve(ctx, text)
	}

	reply := o.manager.Respond(dialogue.Input{
		Query:      text,
		Intent:     cls.Intent,
		Confidence: cls.Confidence,
		Entities:   cls.Entities,
		Chunks:     chunks,
		History:    history,
	})

	result := TurnResult{
		SessionID:  sessionID,
		TurnID:     uuid.NewString(),
		Response:   reply.Text,
		Intent:     string(cls.Intent),
		Confidence: cls.Confidence,
		Timestamp:  time.Now().UTC(),
	}

	if channel == session.ChannelVoice {
		if audioRef, ok := o.synthesize(ctx, result.Response); ok {
			result.AudioRef = audioRef
		}
	}

	elapsed := time.Since(started)
	o.persist(ctx, result, channel, rawInput, text, cls.Entities, reply.Grounded, reply.FlagForFollowUp, elapsed)

	if o.metrics != nil {
		o.metrics.Intents.WithLabelValues(result.Intent).Inc()
	}
	o.countTurn(channel, "ok")
	return result, nil
}

// classify runs the classifier under its own timeout. Timeouts and failures
// degrade to unknown rather than failing the turn.
func (o *Orchestrator) classify(ctx context.Context, text string) nlu.Result {
	cctx, cancel := context.WithTimeout(ctx, o.opts.ClassifyTimeout)
	defer cancel()

	started := time.Now()
	res, err := o.classifier.Classify(cctx, text)
	o.observeStage("classify", time.Since(started))
	if err != nil {
		o.observeDegradation("classify_failed")
		log.Printf("pipeline: classification degraded: %v", err)
		return nlu.Result{Intent: nlu.IntentUnknown}
	}
	return res
}

// retrieve runs knowledge lookup under its own timeout; empty on failure.
func (o *Orchestrator) retrieve(ctx context.Context, query string) []knowledge.Scored {
	rctx, cancel := context.WithTimeout(ctx, o.opts.RetrieveTimeout)
	defer cancel()

	started := time.Now()
	chunks, err := o.retriever.Retrieve(rctx, query, o.opts.RetrievalTopK)
	o.observeStage("retrieve", time.Since(started))
	if err != nil {
		o.observeDegradation("retrieve_failed")
		log.Printf("pipeline: retrieval degraded: %v", err)
		return nil
	}
	return chunks
}

func (o *Orchestrator) transcribe(ctx context.Context, wav []byte) (voice.Transcript, error) {
	tctx, cancel := context.WithTimeout(ctx, o.opts.TranscribeTimeout)
	defer cancel()

	started := time.Now()
	transcript, err := o.provider.Transcribe(tctx, wav)
	o.observeStage("transcribe", time.Since(started))
	if err != nil && o.metrics != nil {
		o.metrics.ProviderErrors.WithLabelValues(o.provider.Name(), "transcribe").Inc()
	}
	return transcript, err
}

// synthesize renders the reply and stores the artifact, reporting success.
// All failures degrade to text-only.
func (o *Orchestrator) synthesize(ctx context.Context, text string) (string, bool) {
	if o.provider == nil || o.audioStore == nil {
		return "", false
	}
	sctx, cancel := context.WithTimeout(ctx, o.opts.SynthesizeTimeout)
	defer cancel()

	started := time.Now()
	wav, err := o.provider.Synthesize(sctx, text)
	o.observeStage("synthesize", time.Since(started))
	if err != nil {
		if o.metrics != nil {
			o.metrics.ProviderErrors.WithLabelValues(o.provider.Name(), "synthesize").Inc()
		}
		o.observeDegradation("synthesis_failed")
		log.Printf("pipeline: synthesis degraded: %v", err)
		return "", false
	}
	name, err := o.audioStore.SaveWAV(wav)
	if err != nil {
		o.observeDegradation("audio_store_failed")
		log.Printf("pipeline: audio store failed: %v", err)
		return "", false
	}
	return name, true
}

func (o *Orchestrator) persist(ctx context.Context, result TurnResult, channel session.Channel, rawInput, normalized string, entities map[string][]string, grounded, flagged bool, elapsed time.Duration) {
	// Stored text and entities are masked; the live turn already consumed
	// the raw values.
	rawInput, _ = policy.RedactPII(rawInput)
	normalized, _ = policy.RedactPII(normalized)
	entities = policy.RedactEntities(entities)

	interaction := session.Interaction{
		TurnID:           result.TurnID,
		SessionID:        result.SessionID,
		Channel:          channel,
		RawInput:         rawInput,
		NormalizedText:   normalized,
		Intent:           result.Intent,
		Confidence:       result.Confidence,
		Entities:         entities,
		ResponseText:     result.Response,
		ResponseAudioRef: result.AudioRef,
		FlaggedFollowUp:  flagged,
		ProcessingTimeMS: elapsed.Milliseconds(),
		Timestamp:        result.Timestamp,
	}
	if err := o.store.Append(ctx, result.SessionID, interaction); err != nil {
		// History loss for one turn is survivable; the response still ships.
		log.Printf("pipeline: append failed session=%s: %v", result.SessionID, err)
	}

	if o.recorder != nil {
		o.recorder.Record(analytics.Event{
			TurnID:           result.TurnID,
			SessionID:        result.SessionID,
			Channel:          string(channel),
			Intent:           result.Intent,
			IntentSetVersion: nlu.IntentSetVersion,
			Confidence:       result.Confidence,
			Entities:         entities,
			Grounded:         grounded,
			FlaggedFollowUp:  flagged,
			ProcessingTimeMS: elapsed.Milliseconds(),
			Timestamp:        result.Timestamp,
		})
	}
}

func (o *Orchestrator) observeStage(stage string, d time.Duration) {
	if o.metrics != nil {
		o.metrics.ObserveStage(stage, d)
	}
}

func (o *Orchestrator) observeDegradation(name string) {
	if o.metrics != nil {
		o.metrics.ObserveDegradation(name)
	}
}

func (o *Orchestrator) countTurn(channel session.Channel, outcome string) {
	if o.metrics != nil {
		o.metrics.Turns.WithLabelValues(string(channel), outcome).Inc()
	}
}
