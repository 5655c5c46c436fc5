package engine

import (
	"context"
	"io"
	"math"
	"sync"
	"time"
)

// MockEngine is a deterministic in-process engine for tests and for
// running the daemon without a synthesis worker. Every request yields
// FrameCount sine-wave frames of FrameSamples samples each.
type MockEngine struct {
	// Rate is the reported sample rate.
	Rate int

	// FrameCount is the number of frames produced per utterance.
	FrameCount int

	// FrameDelay is an artificial pause before each frame, simulating
	// generation latency.
	FrameDelay time.Duration

	mu             sync.Mutex
	conditionCalls map[string]int
	streamCalls    int
}

// NewMockEngine creates a mock engine with 24 kHz output and five frames
// per utterance.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		Rate:           24000,
		FrameCount:     5,
		conditionCalls: make(map[string]int),
	}
}

// Name returns the engine identifier.
func (m *MockEngine) Name() string { return "mock" }

// SampleRate returns the configured output rate.
func (m *MockEngine) SampleRate() int { return m.Rate }

// Channels returns the output channel count (always mono).
func (m *MockEngine) Channels() int { return 1 }

// ConditionVoice returns a synthetic state and counts the call.
func (m *MockEngine) ConditionVoice(ctx context.Context, voiceName string) (*VoiceState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.conditionCalls[voiceName]++
	m.mu.Unlock()

	return &VoiceState{Voice: voiceName, Payload: "mock:" + voiceName}, nil
}

// StreamAudio returns a stream of deterministic tone frames.
func (m *MockEngine) StreamAudio(ctx context.Context, state *VoiceState, text string) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.streamCalls++
	m.mu.Unlock()

	return &mockStream{
		ctx:   ctx,
		rate:  m.Rate,
		total: m.FrameCount,
		delay: m.FrameDelay,
	}, nil
}

// ConditionCalls returns how many times voiceName has been conditioned.
func (m *MockEngine) ConditionCalls(voiceName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conditionCalls[voiceName]
}

// StreamCalls returns how many streams have been started.
func (m *MockEngine) StreamCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCalls
}

type mockStream struct {
	ctx      context.Context
	rate     int
	total    int
	delay    time.Duration
	produced int
	closed   bool
}

// Next produces the next tone frame, honoring the configured delay and the
// stream's context.
func (s *mockStream) Next() (Frame, error) {
	if s.closed || s.produced >= s.total {
		return nil, io.EOF
	}

	if s.delay > 0 {
		select {
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		case <-time.After(s.delay):
		}
	} else if err := s.ctx.Err(); err != nil {
		return nil, err
	}

	frame := make(Frame, FrameSamples)
	phase := float64(s.produced * FrameSamples)
	for i := range frame {
		frame[i] = float32(0.25 * math.Sin(2*math.Pi*220*(phase+float64(i))/float64(s.rate)))
	}
	s.produced++
	return frame, nil
}

// Close marks the stream finished.
func (s *mockStream) Close() error {
	s.closed = true
	return nil
}
