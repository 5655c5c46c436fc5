package engine

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

var (
	// ErrNoCommand is returned when no worker command is configured.
	ErrNoCommand = errors.New("no engine command configured")
	// ErrWorkerExited is returned when the synthesis worker pipe is gone.
	ErrWorkerExited = errors.New("synthesis worker exited")
	// ErrForeignState is returned when a voice state was not produced by
	// this engine.
	ErrForeignState = errors.New("voice state does not belong to this engine")
)

// ProcEngine drives a long-running synthesis worker subprocess. The worker
// owns the model and all conditioning state; this side holds opaque state
// identifiers. The wire protocol is JSON lines on stdin/stdout with
// base64-encoded little-endian float32 sample payloads.
//
// Exactly one worker round-trip is in flight at a time. The worker's
// parallel-safety is unverified, so requests are serialized here rather
// than interleaved on the pipe; during a synthesis stream the engine stays
// locked until the stream is closed.
type ProcEngine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	logger *slog.Logger
	rate   int

	mu sync.Mutex
}

type workerRequest struct {
	Op      string `json:"op"`
	Voice   string `json:"voice,omitempty"`
	StateID string `json:"state_id,omitempty"`
	Text    string `json:"text,omitempty"`
}

type workerResponse struct {
	Ready         bool   `json:"ready,omitempty"`
	SampleRate    int    `json:"sample_rate,omitempty"`
	StateID       string `json:"state_id,omitempty"`
	SamplesBase64 string `json:"samples_base64,omitempty"`
	Final         bool   `json:"final,omitempty"`
	Error         string `json:"error,omitempty"`
}

// StartProcEngine launches the worker described by command and blocks until
// it reports readiness, which includes the model load. There is no cancel
// signal for the load itself; a failure here is fatal to the daemon.
func StartProcEngine(ctx context.Context, command string, logger *slog.Logger) (*ProcEngine, error) {
	if command == "" {
		return nil, ErrNoCommand
	}

	args, err := shellwords.NewParser().Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(args) == 0 {
		return nil, ErrNoCommand
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine worker stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine worker: %w", err)
	}

	e := &ProcEngine{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		logger: logger,
		rate:   24000,
	}

	logger.Info("waiting for engine worker", "command", args[0])

	resp, err := e.readResponse()
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, fmt.Errorf("engine worker handshake: %w", err)
	}
	if !resp.Ready {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, fmt.Errorf("engine worker handshake: unexpected response")
	}
	if resp.SampleRate > 0 {
		e.rate = resp.SampleRate
	}

	logger.Info("engine worker ready", "sample_rate", e.rate)
	return e, nil
}

// Name returns the engine identifier.
func (e *ProcEngine) Name() string { return "pocket" }

// SampleRate returns the worker's output rate.
func (e *ProcEngine) SampleRate() int { return e.rate }

// Channels returns the output channel count (always mono).
func (e *ProcEngine) Channels() int { return 1 }

// ConditionVoice asks the worker to compute conditioning state for a voice.
// The state itself stays in the worker; the returned payload is its handle.
func (e *ProcEngine) ConditionVoice(ctx context.Context, voiceName string) (*VoiceState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.send(workerRequest{Op: "condition", Voice: voiceName}); err != nil {
		return nil, err
	}
	resp, err := e.readResponse()
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("condition voice %q: %s", voiceName, resp.Error)
	}

	return &VoiceState{Voice: voiceName, Payload: resp.StateID}, nil
}

// StreamAudio starts synthesis and returns the frame stream. The engine
// lock is held until the stream is closed, keeping the pipe in sync.
func (e *ProcEngine) StreamAudio(ctx context.Context, state *VoiceState, text string) (Stream, error) {
	stateID, ok := state.Payload.(string)
	if !ok {
		return nil, ErrForeignState
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if err := e.send(workerRequest{Op: "speak", StateID: stateID, Text: text}); err != nil {
		e.mu.Unlock()
		return nil, err
	}

	return &procStream{ctx: ctx, eng: e}, nil
}

// Close shuts the worker down and reaps the process.
func (e *ProcEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stdin.Close()
	return e.cmd.Wait()
}

func (e *ProcEngine) send(req workerRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := e.stdin.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerExited, err)
	}
	return nil
}

func (e *ProcEngine) readResponse() (*workerResponse, error) {
	line, err := e.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerExited, err)
	}
	var resp workerResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode worker response: %w", err)
	}
	return &resp, nil
}

// procStream reads one synthesis session off the worker pipe.
type procStream struct {
	ctx  context.Context
	eng  *ProcEngine
	done bool
}

// Next reads the next frame line. A cancelled context stops the pull; the
// in-flight generation is then torn down by Close.
func (s *procStream) Next() (Frame, error) {
	if s.done {
		return nil, io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := s.eng.readResponse()
	if err != nil {
		s.done = true
		s.eng.mu.Unlock()
		return nil, err
	}
	if resp.Error != "" {
		s.finish()
		return nil, fmt.Errorf("synthesis: %s", resp.Error)
	}
	if resp.Final {
		s.finish()
		return nil, io.EOF
	}

	return decodeSamples(resp.SamplesBase64)
}

// Close cancels an unfinished generation and drains the worker's remaining
// output so the next request starts on a clean pipe.
func (s *procStream) Close() error {
	if s.done {
		return nil
	}

	if err := s.eng.send(workerRequest{Op: "cancel"}); err != nil {
		s.done = true
		s.eng.mu.Unlock()
		return err
	}
	for {
		resp, err := s.eng.readResponse()
		if err != nil {
			s.done = true
			s.eng.mu.Unlock()
			return err
		}
		if resp.Final || resp.Error != "" {
			s.finish()
			return nil
		}
	}
}

func (s *procStream) finish() {
	s.done = true
	s.eng.mu.Unlock()
}

// decodeSamples converts a base64 little-endian float32 payload to a frame.
func decodeSamples(encoded string) (Frame, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode frame payload: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("frame payload length %d is not a multiple of 4", len(raw))
	}

	frame := make(Frame, len(raw)/4)
	for i := range frame {
		bits := binary.LittleEndian.Uint32(raw[4*i:])
		frame[i] = math.Float32frombits(bits)
	}
	return frame, nil
}
