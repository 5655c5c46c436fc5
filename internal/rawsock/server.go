// Package rawsock implements a minimal line-oriented TCP transport for the
// streaming contract, without HTTP framing.
//
// Protocol: the client sends "<voice>\n<text>\n" in one transmission. The
// server replies with the streaming WAV header immediately, then PCM frames
// as they are produced, then 200 ms of silence, and closes the connection.
// Connection close is the only end-of-stream signal, consistent with the
// container's play-until-EOF semantics. There is no acknowledgement and no
// error channel: a failure mid-session is logged locally and the connection
// is closed without a client-visible code.
package rawsock

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/EmZod/Speak-Turbo/internal/config"
	"github.com/EmZod/Speak-Turbo/internal/engine"
	"github.com/EmZod/Speak-Turbo/internal/streamer"
	"github.com/EmZod/Speak-Turbo/internal/voice"
)

// DefaultText is synthesized when the client omits the text line.
const DefaultText = "Hello world"

// maxRequestBytes bounds the single request read. Requests larger than
// this, or split across multiple TCP segments, are not reassembled; that
// is a documented limitation of the protocol, not a bug.
const maxRequestBytes = 4096

// Server serves the raw socket transport.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	handle *engine.Handle
	states *engine.StateCache
	ln     net.Listener
}

// New creates a raw socket server.
func New(cfg *config.Config, logger *slog.Logger, handle *engine.Handle, states *engine.StateCache) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		handle: handle,
		states: states,
	}
}

// Listen binds the TCP listener.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.RawPort))
	if err != nil {
		return fmt.Errorf("raw socket listen: %w", err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound listener address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled or the listener fails.
// Connections are served one at a time: a second client waits until the
// first stream finishes. The serial loop is a deliberate limitation; this
// transport demonstrates the streaming contract, it does not scale it.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	s.logger.Info("raw socket transport listening", "addr", s.ln.Addr().String())

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("raw socket accept: %w", err)
		}
		s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, maxRequestBytes)
	n, err := conn.Read(buf)
	if err != nil {
		s.logger.Warn("raw socket read failed", "remote_addr", conn.RemoteAddr(), "error", err)
		return
	}

	voiceName, text := ParseRequest(string(buf[:n]), s.cfg.DefaultVoice)
	if !voice.Valid(voiceName) {
		s.logger.Warn("raw socket unknown voice", "voice", voiceName, "remote_addr", conn.RemoteAddr())
		return
	}

	stream, rate, err := streamer.Open(ctx, s.handle, s.states, voiceName, text)
	if err != nil {
		s.logger.Error("raw socket synthesis failed", "voice", voiceName, "error", err)
		return
	}
	defer stream.Close()

	frames, err := streamer.Stream(ctx, conn, nil, stream, rate)
	if err != nil {
		s.logger.Warn("raw socket stream aborted", "voice", voiceName, "frames", frames, "error", err)
		return
	}

	s.logger.Info("raw socket stream complete",
		"voice", voiceName,
		"frames", frames,
		"remote_addr", conn.RemoteAddr(),
	)
}

// ParseRequest splits one request read into voice and text, applying the
// defaults for absent lines. Unknown voices are returned as-is; the caller
// decides whether to reject them.
func ParseRequest(data, defaultVoice string) (voiceName, text string) {
	voiceName = defaultVoice
	text = DefaultText

	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) > 0 {
		if v := strings.TrimSpace(lines[0]); v != "" {
			voiceName = v
		}
	}
	if len(lines) > 1 {
		if t := strings.TrimSpace(strings.Join(lines[1:], "\n")); t != "" {
			text = t
		}
	}
	return voiceName, text
}
