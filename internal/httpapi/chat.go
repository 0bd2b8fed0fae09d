package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/pipeline"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/session"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type turnResponse struct {
	SessionID  string    `json:"session_id"`
	TurnID     string    `json:"turn_id"`
	Response   string    `json:"response"`
	Intent     string    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Transcript string    `json:"transcript,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// voiceTurnResponse always carries audio_url; an explicit null tells voice
// clients synthesis was skipped and only the text reply is available.
type voiceTurnResponse struct {
	turnResponse
	AudioURL *string `json:"audio_url"`
}

func turnResponseOf(result pipeline.TurnResult) turnResponse {
	return turnResponse{
		SessionID:  result.SessionID,
		TurnID:     result.TurnID,
		Response:   result.Response,
		Intent:     result.Intent,
		Confidence: result.Confidence,
		Transcript: result.Transcript,
		Timestamp:  result.Timestamp,
	}
}

func voiceTurnResponseOf(result pipeline.TurnResult) voiceTurnResponse {
	resp := voiceTurnResponse{turnResponse: turnResponseOf(result)}
	if result.AudioRef != "" {
		u := "/audio/" + result.AudioRef
		resp.AudioURL = &u
	}
	return resp
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.pipe.ProcessText(r.Context(), req.SessionID, req.Message)
	if err != nil {
		respondTurnError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, turnResponseOf(result))
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if !s.pipe.VoiceEnabled() {
		respondTurnError(w, pipeline.ErrVoiceUnavailable)
		return
	}

	if err := r.ParseMultipartForm(s.cfg.MaxAudioBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form with an audio file")
		return
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "audio file part is required")
		return
	}
	defer file.Close()

	wav, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxAudioBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read audio payload")
		return
	}
	if int64(len(wav)) > s.cfg.MaxAudioBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "audio_too_large", "audio payload exceeds the size limit")
		return
	}

	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	result, err := s.pipe.ProcessVoice(r.Context(), sessionID, wav)
	if err != nil {
		respondTurnError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, voiceTurnResponseOf(result))
}

// handleChatWS serves interactive chat over a websocket: the client sends
// {"message": ...} frames and receives one turn response per message. The
// session is pinned by the query parameter so reconnects resume history.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		result, err := s.pipe.ProcessText(r.Context(), sessionID, req.Message)
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err != nil {
			if writeErr := conn.WriteJSON(wsErrorOf(err)); writeErr != nil {
				break
			}
			continue
		}
		if err := conn.WriteJSON(turnResponseOf(result)); err != nil {
			break
		}
	}

	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
	}
}

func wsErrorOf(err error) errorResponse {
	var ie *pipeline.InputError
	switch {
	case errors.As(err, &ie):
		return errorResponse{Error: ie.Reason, Code: "invalid_request"}
	case errors.Is(err, session.ErrBusy):
		return errorResponse{Error: "another turn for this session is still in progress, retry shortly", Code: "session_busy"}
	default:
		return errorResponse{Error: "something went wrong processing the turn, please try again", Code: "internal"}
	}
}
