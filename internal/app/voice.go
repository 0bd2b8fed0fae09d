package app

import (
	"fmt"
	"strings"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/config"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/voice"
)

type voiceSetup struct {
	provider         voice.Provider
	resolvedProvider string
	detail           string
	cleanup          func() error
}

// resolveVoiceProvider picks the speech backend. "auto" prefers the local
// whisper+piper toolchain and falls back to the mock when it is not
// installed; text chat works either way.
func resolveVoiceProvider(cfg config.Config) (voiceSetup, error) {
	voiceMode := strings.ToLower(strings.TrimSpace(cfg.VoiceProvider))
	if voiceMode == "" {
		voiceMode = "auto"
	}

	tryLocal := func() (voiceSetup, bool, error) {
		p, err := voice.NewLocalProvider(voice.LocalConfig{
			WhisperCLI:         cfg.LocalWhisperCLI,
			WhisperModelPath:   cfg.LocalWhisperModelPath,
			Language:           cfg.LocalWhisperLanguage,
			Threads:            cfg.LocalWhisperThreads,
			SynthesisCLI:       cfg.SynthesisCLI,
			SynthesisModelPath: cfg.SynthesisModelPath,
			SampleRate:         cfg.AudioSampleRate,
		})
		if err != nil {
			return voiceSetup{}, false, err
		}
		return voiceSetup{
			provider:         voice.WithRetry(p),
			resolvedProvider: "local",
			detail:           "local (whisper-cli + piper)",
			cleanup:          p.Close,
		}, true, nil
	}

	mock := func(detail string) voiceSetup {
		return voiceSetup{
			provider:         voice.WithRetry(voice.NewMockProvider(cfg.AudioSampleRate)),
			resolvedProvider: "mock",
			detail:           detail,
			cleanup:          nil,
		}
	}

	switch voiceMode {
	case "local":
		setup, _, err := tryLocal()
		if err != nil {
			return voiceSetup{}, fmt.Errorf("local voice provider init failed: %w", err)
		}
		return setup, nil
	case "mock":
		return mock("mock"), nil
	case "auto":
		setup, ok, err := tryLocal()
		if err == nil && ok {
			return setup, nil
		}
		return mock(fmt.Sprintf("mock (local voice unavailable: %v)", err)), nil
	default:
		return voiceSetup{}, fmt.Errorf("invalid VOICE_PROVIDER: %q (expected auto|local|mock)", cfg.VoiceProvider)
	}
}
