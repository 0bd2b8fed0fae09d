package voice

import (
	"context"
	"strings"
	"sync"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/audio"
)

// MockProvider is the fallback provider used when no local speech toolchain
// is configured. Transcription returns a canned utterance keyed off the audio
// length so tests can steer it, and synthesis renders a short tone so the
// audio pipeline still produces a playable WAV.
type MockProvider struct {
	sampleRate int

	mu      sync.Mutex
	scripts []string
	next    int
}

func NewMockProvider(sampleRate int) *MockProvider {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &MockProvider{sampleRate: sampleRate}
}

// Script queues transcripts to return in order. After the queue drains the
// provider falls back to its default utterance.
func (p *MockProvider) Script(texts ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = append(p.scripts, texts...)
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Transcribe(ctx context.Context, wav []byte) (Transcript, error) {
	if err := ctx.Err(); err != nil {
		return Transcript{}, err
	}
	pcm, _, err := audio.DecodeWAVPCM16LE(wav)
	if err != nil {
		return Transcript{}, &TranscriptionError{Code: "bad_audio", Detail: err.Error()}
	}
	if len(pcm) == 0 {
		return Transcript{Source: "mock"}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next < len(p.scripts) {
		text := p.scripts[p.next]
		p.next++
		return Transcript{Text: text, Confidence: 0.95, Source: "mock"}, nil
	}
	return Transcript{Text: "what are the admission requirements", Confidence: 0.7, Source: "mock"}, nil
}

func (p *MockProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &SynthesisError{Code: "empty_text", Detail: "nothing to synthesize"}
	}
	// Roughly 40ms of tone per word keeps mock replies short but length-true.
	words := len(strings.Fields(text))
	samples := p.sampleRate * 40 * words / 1000
	if samples < p.sampleRate/10 {
		samples = p.sampleRate / 10
	}
	pcm := audio.SynthesizeTone(440, p.sampleRate, samples)
	return audio.EncodeWAVPCM16LE(pcm, p.sampleRate)
}

func (p *MockProvider) Close() error { return nil }
