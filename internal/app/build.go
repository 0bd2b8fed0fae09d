package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/analytics"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/audio"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/config"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/dialogue"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/followup"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/httpapi"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/knowledge"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/nlu"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/observability"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/pipeline"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/session"
)

type VoiceInfo struct {
	Provider string
	Detail   string
}

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Store    session.Store
	Pipeline *pipeline.Orchestrator
	Metrics  *observability.Metrics
	Voice    VoiceInfo

	// Cleanup should be called on shutdown to release external resources
	// (DB pools, local workers, the analytics queue).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	classifier, err := nlu.NewClassifier(cfg.IntentsPath, cfg.ConfidenceThreshold)
	if err != nil {
		return nil, fmt.Errorf("classifier init failed: %w", err)
	}

	embedder, err := knowledge.NewEmbedder(knowledge.DefaultDim)
	if err != nil {
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}
	var index *knowledge.Index
	if cfg.KnowledgeIndexPath != "" {
		index, err = knowledge.LoadIndexFile(cfg.KnowledgeIndexPath, embedder)
		if err != nil {
			return nil, fmt.Errorf("knowledge index load failed: %w", err)
		}
	} else {
		corpus, err := knowledge.LoadCorpus(cfg.KnowledgeBasePath)
		if err != nil {
			return nil, fmt.Errorf("knowledge base load failed: %w", err)
		}
		index = knowledge.BuildIndex(embedder, corpus)
	}
	retriever, err := knowledge.NewRetriever(embedder, index, cfg.SimilarityFloor)
	if err != nil {
		return nil, fmt.Errorf("retriever init failed: %w", err)
	}
	corpus := index.Chunks()

	store, err := session.NewStore(ctx, cfg.DatabaseURL, cfg.SessionInactivityTimeout)
	if err != nil {
		return nil, fmt.Errorf("session store init failed: %w", err)
	}
	if n, err := store.ActiveCount(ctx); err == nil {
		metrics.ActiveSessions.Set(float64(n))
	}

	analyticsLog, err := analytics.NewLog(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("analytics log init failed: %w", err)
	}
	recorder := analytics.NewRecorder(analyticsLog, cfg.AnalyticsQueueSize, metrics)

	voiceSetup, err := resolveVoiceProvider(cfg)
	if err != nil {
		recorder.Close()
		_ = analyticsLog.Close()
		_ = store.Close()
		return nil, err
	}
	cfg.VoiceProvider = voiceSetup.resolvedProvider

	audioStore, err := audio.NewStore(cfg.AudioDir)
	if err != nil {
		recorder.Close()
		_ = analyticsLog.Close()
		_ = store.Close()
		return nil, fmt.Errorf("audio store init failed: %w", err)
	}

	orchestrator := pipeline.New(
		classifier,
		retriever,
		dialogue.NewManager(),
		store,
		voiceSetup.provider,
		audioStore,
		recorder,
		metrics,
		pipeline.Options{
			HistoryLimit:      cfg.SessionHistoryLimit,
			RetrievalTopK:     cfg.RetrievalTopK,
			BusyTimeout:       cfg.SessionBusyTimeout,
			ClassifyTimeout:   cfg.ClassifyTimeout,
			RetrieveTimeout:   cfg.RetrieveTimeout,
			TranscribeTimeout: cfg.TranscribeTimeout,
			SynthesizeTimeout: cfg.SynthesizeTimeout,
		},
	)

	followups := followup.NewService(store, followup.LogMailer{}, cfg.FollowUpFromAddress)

	storeMode := "in-memory"
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		storeMode = "postgres"
	}

	api := httpapi.New(cfg, orchestrator, store, analyticsLog, followups, audioStore, corpus, metrics, storeMode)

	cleanup := func() error {
		var errs []string
		recorder.Close()
		if voiceSetup.cleanup != nil {
			if err := voiceSetup.cleanup(); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if err := analyticsLog.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := store.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Store:    store,
		Pipeline: orchestrator,
		Metrics:  metrics,
		Voice: VoiceInfo{
			Provider: voiceSetup.resolvedProvider,
			Detail:   voiceSetup.detail,
		},
		Cleanup: cleanup,
	}, nil
}
