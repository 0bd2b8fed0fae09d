package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.ConfidenceThreshold != 0.7 {
		t.Fatalf("ConfidenceThreshold = %v, want 0.7", cfg.ConfidenceThreshold)
	}
	if cfg.SimilarityFloor != 0.3 {
		t.Fatalf("SimilarityFloor = %v, want 0.3", cfg.SimilarityFloor)
	}
	if cfg.SessionInactivityTimeout != 24*time.Hour {
		t.Fatalf("SessionInactivityTimeout = %v, want 24h", cfg.SessionInactivityTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NLU_CONFIDENCE_THRESHOLD", "0.55")
	t.Setenv("RETRIEVAL_TOP_K", "5")
	t.Setenv("VOICE_PROVIDER", "mock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ConfidenceThreshold != 0.55 {
		t.Fatalf("ConfidenceThreshold = %v, want 0.55", cfg.ConfidenceThreshold)
	}
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("RetrievalTopK = %d, want 5", cfg.RetrievalTopK)
	}
	if cfg.VoiceProvider != "mock" {
		t.Fatalf("VoiceProvider = %q, want %q", cfg.VoiceProvider, "mock")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"threshold above one", map[string]string{"NLU_CONFIDENCE_THRESHOLD": "1.5"}},
		{"negative floor", map[string]string{"RETRIEVAL_SIMILARITY_FLOOR": "-0.1"}},
		{"zero top k", map[string]string{"RETRIEVAL_TOP_K": "0"}},
		{"short inactivity", map[string]string{"SESSION_INACTIVITY_TIMEOUT": "10s"}},
		{"bad provider", map[string]string{"VOICE_PROVIDER": "cloud"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("Load() expected error for %s", tc.name)
			}
		})
	}
}
