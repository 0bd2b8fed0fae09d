package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/audio"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/reliability"
)

func toneWAV(t *testing.T) []byte {
	t.Helper()
	pcm := audio.SynthesizeTone(440, 16000, 1600)
	wav, err := audio.EncodeWAVPCM16LE(pcm, 16000)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16LE() error = %v", err)
	}
	return wav
}

func TestMockTranscribeFollowsScript(t *testing.T) {
	p := NewMockProvider(16000)
	p.Script("hello", "what programs do you offer")

	wav := toneWAV(t)
	first, err := p.Transcribe(context.Background(), wav)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if first.Text != "hello" {
		t.Errorf("Transcribe() = %q, want hello", first.Text)
	}
	second, _ := p.Transcribe(context.Background(), wav)
	if second.Text != "what programs do you offer" {
		t.Errorf("Transcribe() = %q, want scripted second line", second.Text)
	}
	// Drained script falls back to the default utterance.
	third, _ := p.Transcribe(context.Background(), wav)
	if third.Text == "" {
		t.Error("Transcribe() returned empty text after script drained")
	}
}

func TestMockTranscribeRejectsGarbage(t *testing.T) {
	p := NewMockProvider(16000)
	_, err := p.Transcribe(context.Background(), []byte("not a wav"))
	var te *TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("Transcribe() error = %v, want *TranscriptionError", err)
	}
	if te.Retryable {
		t.Error("bad audio should not be retryable")
	}
}

func TestMockSynthesizeProducesWAV(t *testing.T) {
	p := NewMockProvider(16000)
	wav, err := p.Synthesize(context.Background(), "Here are the admission requirements.")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	pcm, rate, err := audio.DecodeWAVPCM16LE(wav)
	if err != nil {
		t.Fatalf("DecodeWAVPCM16LE() error = %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if len(pcm) == 0 {
		t.Error("Synthesize() produced no samples")
	}
}

func TestMockSynthesizeRejectsEmptyText(t *testing.T) {
	p := NewMockProvider(16000)
	if _, err := p.Synthesize(context.Background(), "   "); err == nil {
		t.Fatal("Synthesize() accepted blank text")
	}
}

type flakyProvider struct {
	*MockProvider
	failuresLeft int
	calls        int
}

func (f *flakyProvider) Transcribe(ctx context.Context, wav []byte) (Transcript, error) {
	f.calls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return Transcript{}, &TranscriptionError{Code: "backend_busy", Detail: "try again", Retryable: true}
	}
	return f.MockProvider.Transcribe(ctx, wav)
}

func TestRetryingProviderRetriesTransientOnce(t *testing.T) {
	flaky := &flakyProvider{MockProvider: NewMockProvider(16000), failuresLeft: 1}
	p := WithRetry(flaky)

	got, err := p.Transcribe(context.Background(), toneWAV(t))
	if err != nil {
		t.Fatalf("Transcribe() error = %v, want recovery on retry", err)
	}
	if got.Text == "" {
		t.Error("Transcribe() returned empty transcript after retry")
	}
	if flaky.calls != 2 {
		t.Errorf("calls = %d, want 2", flaky.calls)
	}
}

func TestRetryingProviderGivesUpAfterSecondFailure(t *testing.T) {
	flaky := &flakyProvider{MockProvider: NewMockProvider(16000), failuresLeft: 5}
	p := WithRetry(flaky)

	if _, err := p.Transcribe(context.Background(), toneWAV(t)); err == nil {
		t.Fatal("Transcribe() succeeded, want failure after one retry")
	}
	if flaky.calls != 2 {
		t.Errorf("calls = %d, want exactly 2", flaky.calls)
	}
}

func TestTranscriptionErrorTransience(t *testing.T) {
	if !reliability.IsTransient(&TranscriptionError{Code: "x", Retryable: true}) {
		t.Error("retryable transcription error should be transient")
	}
	if reliability.IsTransient(&SynthesisError{Code: "empty_text"}) {
		t.Error("non-retryable synthesis error should not be transient")
	}
}

func TestLocalProviderRequiresTooling(t *testing.T) {
	_, err := NewLocalProvider(LocalConfig{
		WhisperCLI:       "definitely-not-a-real-binary",
		WhisperModelPath: "/nonexistent/model.bin",
	})
	if err == nil {
		t.Fatal("NewLocalProvider() succeeded without whisper toolchain")
	}
}
