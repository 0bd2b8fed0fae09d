package voice

import (
	"context"
	"fmt"
)

// Transcript is one speech-to-text result for a complete utterance.
type Transcript struct {
	Text       string
	Confidence float64
	// Source names the backend that produced the text ("whisper-cli", "mock").
	Source string
}

// Transcriber converts a complete WAV utterance to text. Implementations must
// honor ctx cancellation; the caller owns the timeout budget.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (Transcript, error)
}

// Synthesizer renders reply text to a WAV payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Provider bundles both directions plus lifecycle.
type Provider interface {
	Transcriber
	Synthesizer
	Name() string
	Close() error
}

// TranscriptionError is a classified STT failure. Retryable failures (process
// crashes, busy backends) are retried once; malformed input is not.
type TranscriptionError struct {
	Code      string
	Detail    string
	Retryable bool
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed (%s): %s", e.Code, e.Detail)
}

func (e *TranscriptionError) Transient() bool { return e.Retryable }

// SynthesisError is the TTS counterpart.
type SynthesisError struct {
	Code      string
	Detail    string
	Retryable bool
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed (%s): %s", e.Code, e.Detail)
}

func (e *SynthesisError) Transient() bool { return e.Retryable }
