package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/analytics"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/audio"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/config"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/followup"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/knowledge"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/observability"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/pipeline"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/session"
)

// Pipeline is what the transport needs from the turn orchestrator.
type Pipeline interface {
	ProcessText(ctx context.Context, sessionID, message string) (pipeline.TurnResult, error)
	ProcessVoice(ctx context.Context, sessionID string, wav []byte) (pipeline.TurnResult, error)
	VoiceEnabled() bool
}

type Server struct {
	cfg       config.Config
	pipe      Pipeline
	store     session.Store
	log       analytics.Log
	followups *followup.Service
	audio     *audio.Store
	corpus    []knowledge.Chunk
	metrics   *observability.Metrics
	storeMode string
	upgrader  websocket.Upgrader
}

func New(
	cfg config.Config,
	pipe Pipeline,
	store session.Store,
	logStore analytics.Log,
	followups *followup.Service,
	audioStore *audio.Store,
	corpus []knowledge.Chunk,
	metrics *observability.Metrics,
	storeMode string,
) *Server {
	return &Server{
		cfg:       cfg,
		pipe:      pipe,
		store:     store,
		log:       logStore,
		followups: followups,
		audio:     audioStore,
		corpus:    corpus,
		metrics:   metrics,
		storeMode: storeMode,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Post("/v1/voice", s.handleVoice)
	r.Get("/v1/analytics", s.handleAnalytics)
	r.Post("/v1/feedback", s.handleFeedback)
	r.Post("/v1/followup", s.handleFollowUp)
	r.Get("/v1/knowledge", s.handleKnowledge)
	r.Get("/v1/perf/latency", s.handlePerfLatency)
	r.Get("/audio/{name}", s.handleAudio)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"components": s.componentStatus(context.Background()),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	components := s.componentStatus(r.Context())
	status := http.StatusOK
	state := "ready"
	if components["pipeline"] != "ok" {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	respondJSON(w, status, map[string]any{
		"status":     state,
		"components": components,
	})
}

func (s *Server) componentStatus(ctx context.Context) map[string]any {
	components := map[string]any{
		"pipeline":        "ok",
		"knowledge_base":  len(s.corpus),
		"session_store":   s.storeMode,
		"voice":           "disabled",
		"analytics_store": s.storeMode,
	}
	if s.pipe == nil {
		components["pipeline"] = "unavailable"
	} else if s.pipe.VoiceEnabled() {
		components["voice"] = "ok"
	}
	if s.store != nil {
		if n, err := s.store.ActiveCount(ctx); err == nil {
			components["active_sessions"] = n
			if s.metrics != nil {
				s.metrics.ActiveSessions.Set(float64(n))
			}
		}
	}
	return components
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "metrics not configured")
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.SnapshotStages())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondTurnError maps pipeline failures onto the API error contract. Every
// failure still yields a well-formed JSON body.
func respondTurnError(w http.ResponseWriter, err error) {
	var ie *pipeline.InputError
	switch {
	case errors.As(err, &ie):
		respondError(w, http.StatusBadRequest, "invalid_request", ie.Reason)
	case errors.Is(err, session.ErrBusy):
		respondError(w, http.StatusConflict, "session_busy", "another turn for this session is still in progress, retry shortly")
	case errors.Is(err, pipeline.ErrVoiceUnavailable):
		respondError(w, http.StatusServiceUnavailable, "voice_unavailable", "voice processing is not available right now, please try again or use text chat")
	case errors.Is(err, context.Canceled):
		respondError(w, http.StatusBadRequest, "client_closed", "request cancelled")
	default:
		respondError(w, http.StatusInternalServerError, "internal", "something went wrong processing the turn, please try again")
	}
}
