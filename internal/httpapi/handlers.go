package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/analytics"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/followup"
)

const (
	defaultAnalyticsDays = 7
	maxAnalyticsDays     = 90
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	days := defaultAnalyticsDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid_request", "days must be a positive integer")
			return
		}
		days = n
	}
	if days > maxAnalyticsDays {
		days = maxAnalyticsDays
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	events, err := s.log.Query(r.Context(), from, to)
	if err != nil {
		log.Printf("httpapi: analytics query failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "analytics unavailable")
		return
	}
	respondJSON(w, http.StatusOK, analytics.Summarize(events, from, to))
}

type feedbackRequest struct {
	SessionID    string `json:"session_id"`
	MessageID    string `json:"message_id,omitempty"`
	FeedbackType string `json:"feedback_type"`
	Comment      string `json:"comment,omitempty"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_id is required")
		return
	}
	if !analytics.FeedbackTypes[req.FeedbackType] {
		respondError(w, http.StatusBadRequest, "invalid_request", "unsupported feedback_type")
		return
	}

	err := s.log.SaveFeedback(r.Context(), analytics.Feedback{
		SessionID: req.SessionID,
		TurnID:    req.MessageID,
		Type:      req.FeedbackType,
		Comment:   req.Comment,
	})
	if err != nil {
		log.Printf("httpapi: feedback save failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "could not record feedback")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	var req followup.Request
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.followups.Submit(r.Context(), req); err != nil {
		var ire *followup.InvalidRequestError
		if errors.As(err, &ire) {
			respondError(w, http.StatusBadRequest, "invalid_request", ire.Error())
			return
		}
		log.Printf("httpapi: follow-up failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "could not submit follow-up request")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}

func (s *Server) handleKnowledge(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(s.corpus),
		"chunks": s.corpus,
	})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if s.audio == nil {
		respondError(w, http.StatusNotFound, "not_found", "audio serving is not enabled")
		return
	}
	name := chi.URLParam(r, "name")
	path, err := s.audio.Resolve(name)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "no such audio artifact")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}
