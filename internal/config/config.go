package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all runtime settings for the admission inquiry service.
type Config struct {
	BindAddr         string        `env:"APP_BIND_ADDR" envDefault:":8080"`
	ShutdownTimeout  time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	MetricsNamespace string        `env:"APP_METRICS_NAMESPACE" envDefault:"admission"`
	AllowAnyOrigin   bool          `env:"APP_ALLOW_ANY_ORIGIN" envDefault:"false"`

	// Session store.
	DatabaseURL              string        `env:"DATABASE_URL"`
	SessionInactivityTimeout time.Duration `env:"SESSION_INACTIVITY_TIMEOUT" envDefault:"24h"`
	SessionHistoryLimit      int           `env:"SESSION_HISTORY_LIMIT" envDefault:"10"`
	// SessionBusyTimeout bounds how long a turn waits for the previous turn on
	// the same session before being rejected as busy.
	SessionBusyTimeout time.Duration `env:"SESSION_BUSY_TIMEOUT" envDefault:"10s"`

	// NLU.
	IntentsPath         string  `env:"INTENTS_PATH"`
	ConfidenceThreshold float64 `env:"NLU_CONFIDENCE_THRESHOLD" envDefault:"0.7"`

	// Knowledge retrieval. When KnowledgeIndexPath points at a prebuilt
	// index it is loaded instead of embedding the corpus at startup; a
	// mismatched embedder tag fails the boot.
	KnowledgeBasePath  string  `env:"KNOWLEDGE_BASE_PATH"`
	KnowledgeIndexPath string  `env:"KNOWLEDGE_INDEX_PATH"`
	SimilarityFloor    float64 `env:"RETRIEVAL_SIMILARITY_FLOOR" envDefault:"0.3"`
	RetrievalTopK      int     `env:"RETRIEVAL_TOP_K" envDefault:"3"`

	// Per-stage deadlines. A timed-out classifier or retriever call degrades
	// the turn instead of hanging the request.
	ClassifyTimeout   time.Duration `env:"NLU_CLASSIFY_TIMEOUT" envDefault:"2s"`
	RetrieveTimeout   time.Duration `env:"RETRIEVAL_TIMEOUT" envDefault:"2s"`
	TranscribeTimeout time.Duration `env:"STT_TRANSCRIBE_TIMEOUT" envDefault:"30s"`
	SynthesizeTimeout time.Duration `env:"TTS_SYNTHESIZE_TIMEOUT" envDefault:"30s"`

	// Voice providers.
	VoiceProvider         string `env:"VOICE_PROVIDER" envDefault:"auto"`
	LocalWhisperCLI       string `env:"LOCAL_WHISPER_CLI" envDefault:"whisper-cli"`
	LocalWhisperModelPath string `env:"LOCAL_WHISPER_MODEL_PATH" envDefault:".models/whisper/ggml-base.bin"`
	LocalWhisperLanguage  string `env:"LOCAL_WHISPER_LANGUAGE" envDefault:"en"`
	LocalWhisperThreads   int    `env:"LOCAL_WHISPER_THREADS" envDefault:"0"`
	SynthesisCLI          string `env:"SYNTHESIS_CLI" envDefault:"piper"`
	SynthesisModelPath    string `env:"SYNTHESIS_MODEL_PATH"`
	AudioDir              string `env:"AUDIO_DIR" envDefault:"data/audio"`
	AudioSampleRate       int    `env:"AUDIO_SAMPLE_RATE" envDefault:"16000"`
	MaxAudioBytes         int64  `env:"MAX_AUDIO_BYTES" envDefault:"16777216"`

	// Analytics.
	AnalyticsQueueSize int `env:"ANALYTICS_QUEUE_SIZE" envDefault:"256"`

	// Follow-up handoff.
	FollowUpFromAddress string `env:"FOLLOWUP_FROM_ADDRESS" envDefault:"admissions@university.edu"`
}

// Load reads environment variables and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SessionInactivityTimeout < time.Minute {
		return fmt.Errorf("SESSION_INACTIVITY_TIMEOUT must be at least 1m")
	}
	if c.SessionHistoryLimit <= 0 {
		return fmt.Errorf("SESSION_HISTORY_LIMIT must be positive")
	}
	if c.SessionBusyTimeout <= 0 {
		return fmt.Errorf("SESSION_BUSY_TIMEOUT must be positive")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("NLU_CONFIDENCE_THRESHOLD must be in [0,1]")
	}
	if c.SimilarityFloor < 0 || c.SimilarityFloor > 1 {
		return fmt.Errorf("RETRIEVAL_SIMILARITY_FLOOR must be in [0,1]")
	}
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive")
	}
	if c.ClassifyTimeout <= 0 || c.RetrieveTimeout <= 0 {
		return fmt.Errorf("stage timeouts must be positive")
	}
	if c.TranscribeTimeout <= 0 || c.SynthesizeTimeout <= 0 {
		return fmt.Errorf("voice timeouts must be positive")
	}
	if c.LocalWhisperThreads < 0 {
		return fmt.Errorf("LOCAL_WHISPER_THREADS must be >= 0")
	}
	if c.AudioSampleRate <= 0 {
		return fmt.Errorf("AUDIO_SAMPLE_RATE must be positive")
	}
	if c.MaxAudioBytes <= 0 {
		return fmt.Errorf("MAX_AUDIO_BYTES must be positive")
	}
	if c.AnalyticsQueueSize <= 0 {
		return fmt.Errorf("ANALYTICS_QUEUE_SIZE must be positive")
	}
	switch c.VoiceProvider {
	case "auto", "local", "mock":
	default:
		return fmt.Errorf("invalid VOICE_PROVIDER: %q (expected auto|local|mock)", c.VoiceProvider)
	}
	return nil
}
