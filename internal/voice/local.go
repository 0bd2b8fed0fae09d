package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/audio"
)

// LocalConfig configures the on-box speech toolchain: whisper.cpp for
// transcription and piper for synthesis.
type LocalConfig struct {
	WhisperCLI       string
	WhisperModelPath string
	Language         string
	Threads          int

	SynthesisCLI       string
	SynthesisModelPath string
	SampleRate         int
}

// LocalProvider shells out to whisper-cli and piper. Both tools are
// single-utterance batch programs, so each direction is serialized with its
// own mutex; concurrent turns queue rather than spawning competing processes.
type LocalProvider struct {
	whisper whisperCLI
	piper   piperCLI

	sttMu sync.Mutex
	ttsMu sync.Mutex
}

func NewLocalProvider(cfg LocalConfig) (*LocalProvider, error) {
	w, err := newWhisperCLI(cfg.WhisperCLI, cfg.WhisperModelPath, cfg.Language, cfg.Threads)
	if err != nil {
		return nil, err
	}
	p, err := newPiperCLI(cfg.SynthesisCLI, cfg.SynthesisModelPath, cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	return &LocalProvider{whisper: w, piper: p}, nil
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) Transcribe(ctx context.Context, wav []byte) (Transcript, error) {
	pcm, sampleRate, err := audio.DecodeWAVPCM16LE(wav)
	if err != nil {
		return Transcript{}, &TranscriptionError{Code: "bad_audio", Detail: err.Error()}
	}
	if len(pcm) == 0 {
		return Transcript{Source: "whisper-cli"}, nil
	}

	p.sttMu.Lock()
	defer p.sttMu.Unlock()

	text, err := p.whisper.run(ctx, pcm, sampleRate)
	if err != nil {
		return Transcript{}, err
	}
	// whisper.cpp does not report per-utterance confidence; a fixed estimate
	// keeps downstream scoring uniform across providers.
	return Transcript{Text: text, Confidence: 0.85, Source: "whisper-cli"}, nil
}

func (p *LocalProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &SynthesisError{Code: "empty_text", Detail: "nothing to synthesize"}
	}
	p.ttsMu.Lock()
	defer p.ttsMu.Unlock()
	return p.piper.run(ctx, text)
}

func (p *LocalProvider) Close() error { return nil }

type whisperCLI struct {
	cliPath   string
	modelPath string
	language  string
	threads   int
}

func newWhisperCLI(cli, modelPath, language string, threads int) (whisperCLI, error) {
	cli = strings.TrimSpace(cli)
	if cli == "" {
		cli = "whisper-cli"
	}
	cliPath, err := exec.LookPath(cli)
	if err != nil {
		return whisperCLI{}, fmt.Errorf("whisper.cpp CLI not found (%s)", cli)
	}
	modelPath = strings.TrimSpace(modelPath)
	if modelPath == "" {
		return whisperCLI{}, fmt.Errorf("LOCAL_WHISPER_MODEL_PATH is required")
	}
	if !filepath.IsAbs(modelPath) {
		if wd, err := os.Getwd(); err == nil {
			modelPath = filepath.Join(wd, modelPath)
		}
	}
	if _, err := os.Stat(modelPath); err != nil {
		return whisperCLI{}, fmt.Errorf("whisper.cpp model not found: %s", modelPath)
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = "en"
	}
	if threads < 0 {
		return whisperCLI{}, fmt.Errorf("LOCAL_WHISPER_THREADS must be >= 0")
	}
	if threads == 0 {
		threads = 4
		if n := runtime.NumCPU(); n > 0 {
			threads = n
		}
		if threads > 8 {
			threads = 8
		}
		if threads < 2 {
			threads = 2
		}
	}
	return whisperCLI{cliPath: cliPath, modelPath: modelPath, language: language, threads: threads}, nil
}

func (w whisperCLI) run(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	tmpDir, err := os.MkdirTemp("", "admission-whisper-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "audio.wav")
	f, err := os.Create(wavPath)
	if err != nil {
		return "", err
	}
	if err := audio.WriteWAVPCM16LETo(f, pcm, sampleRate); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	outPrefix := filepath.Join(tmpDir, "out")

	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-l", w.language,
		"-otxt",
		"-of", outPrefix,
		"-nt",
		"-t", strconv.Itoa(w.threads),
	}
	cmd := exec.CommandContext(ctx, w.cliPath, args...)
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		detail := strings.TrimSpace(stderr.String())
		// whisper.cpp can be extremely chatty; keep errors readable.
		if len(detail) > 8<<10 {
			detail = strings.TrimSpace(detail[len(detail)-(8<<10):])
		}
		if detail == "" {
			detail = err.Error()
		}
		return "", &TranscriptionError{Code: "whisper_failed", Detail: detail, Retryable: true}
	}

	b, err := os.ReadFile(outPrefix + ".txt")
	if err != nil {
		return "", &TranscriptionError{Code: "whisper_no_output", Detail: err.Error(), Retryable: true}
	}
	return strings.TrimSpace(string(b)), nil
}

type piperCLI struct {
	cliPath    string
	modelPath  string
	sampleRate int
}

func newPiperCLI(cli, modelPath string, sampleRate int) (piperCLI, error) {
	cli = strings.TrimSpace(cli)
	if cli == "" {
		cli = "piper"
	}
	cliPath, err := exec.LookPath(cli)
	if err != nil {
		return piperCLI{}, fmt.Errorf("synthesis CLI not found (%s)", cli)
	}
	modelPath = strings.TrimSpace(modelPath)
	if modelPath == "" {
		return piperCLI{}, fmt.Errorf("SYNTHESIS_MODEL_PATH is required")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return piperCLI{}, fmt.Errorf("synthesis model not found: %s", modelPath)
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return piperCLI{cliPath: cliPath, modelPath: modelPath, sampleRate: sampleRate}, nil
}

func (p piperCLI) run(ctx context.Context, text string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "admission-piper-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "reply.wav")
	cmd := exec.CommandContext(ctx, p.cliPath,
		"--model", p.modelPath,
		"--output_file", outPath,
	)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, &SynthesisError{Code: "piper_failed", Detail: detail, Retryable: true}
	}

	wav, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &SynthesisError{Code: "piper_no_output", Detail: err.Error(), Retryable: true}
	}
	if len(wav) == 0 {
		return nil, &SynthesisError{Code: "piper_empty_output", Detail: "synthesizer wrote no audio", Retryable: true}
	}
	return wav, nil
}
