package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/EmZod/Speak-Turbo/internal/streamer"
	"github.com/EmZod/Speak-Turbo/internal/voice"
	"github.com/EmZod/Speak-Turbo/internal/wav"
)

// HealthResponse represents the response body for /health.
type HealthResponse struct {
	Status string   `json:"status"`
	Voices []string `json:"voices"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "loading"
	if s.handle.Loaded() {
		status = "ready"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		Status: status,
		Voices: voice.List(),
	})
}

// resolveRequest validates raw text and voice values. It returns the
// trimmed text, the resolved voice (default applied), and an error message
// for the client when validation fails. Text is checked before voice.
func (s *Server) resolveRequest(text, voiceName string) (string, string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", "text cannot be empty"
	}
	if len(text) > s.cfg.MaxTextLength {
		return "", "", fmt.Sprintf("text exceeds maximum length of %d", s.cfg.MaxTextLength)
	}

	if voiceName == "" {
		voiceName = s.cfg.DefaultVoice
	}
	if !voice.Valid(voiceName) {
		return "", "", fmt.Sprintf("invalid voice %q, available: %s",
			voiceName, strings.Join(voice.List(), ", "))
	}

	return text, voiceName, ""
}

// handleTTS handles POST /tts requests: a chunked streaming WAV response
// whose first bytes reach the client before generation has finished.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	text, voiceName, errMsg := s.resolveRequest(r.PostFormValue("text"), r.PostFormValue("voice"))
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	stream, rate, err := streamer.Open(r.Context(), s.handle, s.states, voiceName, text)
	if err != nil {
		s.logger.Error("synthesis failed", "voice", voiceName, "error", err)
		s.writeError(w, http.StatusInternalServerError, "synthesis failed")
		return
	}
	defer stream.Close()

	flush := func() {}
	if flusher, ok := w.(http.Flusher); ok {
		flush = flusher.Flush
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", "attachment; filename=speech.wav")
	w.Header().Set("X-Sample-Rate", strconv.Itoa(rate))
	w.Header().Set("X-Streaming", "true")

	frames, err := streamer.Stream(r.Context(), w, flush, stream, rate)
	if err != nil {
		// The header is already on the wire; all we can do is stop.
		s.logger.Warn("stream aborted", "voice", voiceName, "frames", frames, "error", err)
		return
	}

	s.logger.Info("stream complete", "voice", voiceName, "frames", frames, "text_length", len(text))
}

// handleTTSBuffered handles POST /tts/buffered requests: the full payload
// is generated first and returned with an exact Content-Length, for
// clients and proxies that cannot consume chunked bodies.
func (s *Server) handleTTSBuffered(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	text, voiceName, errMsg := s.resolveRequest(r.PostFormValue("text"), r.PostFormValue("voice"))
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	stream, rate, err := streamer.Open(r.Context(), s.handle, s.states, voiceName, text)
	if err != nil {
		s.logger.Error("synthesis failed", "voice", voiceName, "error", err)
		s.writeError(w, http.StatusInternalServerError, "synthesis failed")
		return
	}
	defer stream.Close()

	pcm, frames, err := streamer.Drain(stream)
	if errors.Is(err, streamer.ErrNoAudio) {
		s.logger.Error("engine produced no audio", "voice", voiceName, "text_length", len(text))
		s.writeError(w, http.StatusInternalServerError, "no audio generated")
		return
	}
	if err != nil {
		s.logger.Error("synthesis failed", "voice", voiceName, "error", err)
		s.writeError(w, http.StatusInternalServerError, "synthesis failed")
		return
	}

	body := wav.WrapRawPCM(pcm, rate, wav.Channels, wav.BitsPerSample)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("X-Sample-Rate", strconv.Itoa(rate))
	w.Write(body)

	s.logger.Info("buffered response complete", "voice", voiceName, "frames", frames, "bytes", len(body))
}
