package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EmZod/Speak-Turbo/internal/streamer"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleTTSWebSocket handles GET /tts/ws requests. It streams the same
// session as POST /tts over a WebSocket: one binary message for the
// container header, one per frame, one for the trailing silence, then a
// normal close frame. Validation failures are rejected before the upgrade
// with a plain HTTP status.
func (s *Server) handleTTSWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text, voiceName, errMsg := s.resolveRequest(q.Get("text"), q.Get("voice"))
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

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Each Write is one binary message, so no separate flush step exists.
	frames, err := streamer.Stream(r.Context(), wsWriter{conn}, nil, stream, rate)
	if err != nil {
		s.logger.Warn("websocket stream aborted", "voice", voiceName, "frames", frames, "error", err)
		return
	}

	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

	s.logger.Info("websocket stream complete", "voice", voiceName, "frames", frames)
}

// wsWriter adapts a websocket connection to io.Writer.
type wsWriter struct {
	conn *websocket.Conn
}

func (w wsWriter) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
