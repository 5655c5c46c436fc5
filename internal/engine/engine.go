// Package engine defines the capability boundary around the neural
// synthesis engine and the shared process-wide engine state: the
// initialize-once engine handle and the voice conditioning-state cache.
package engine

import "context"

// FrameSamples is the nominal number of samples per frame (~80 ms at 24 kHz).
const FrameSamples = 1920

// Frame is one block of synthesized mono samples in the range [-1, 1].
// Frames are produced one at a time and consumed immediately by the encoder.
type Frame []float32

// VoiceState is the precomputed conditioning state for one voice.
// Immutable after creation; cached for the process lifetime.
type VoiceState struct {
	// Voice is the owning voice name.
	Voice string

	// Payload is engine-specific and opaque to callers.
	Payload any
}

// Stream yields audio frames one at a time, in production order. Next
// blocks until the engine produces the next frame and returns io.EOF when
// the sequence is complete. Close stops generation early and releases the
// underlying resources; it must be called exactly once per stream.
type Stream interface {
	Next() (Frame, error)
	Close() error
}

// Engine is the contract for the synthesis engine collaborator.
type Engine interface {
	// Name identifies the engine implementation.
	Name() string

	// SampleRate is the fixed output sample rate in Hz.
	SampleRate() int

	// Channels is the fixed output channel count.
	Channels() int

	// ConditionVoice computes the conditioning state for a voice. This is
	// expensive; callers are expected to cache the result (see StateCache)
	// and to validate voice membership beforehand.
	ConditionVoice(ctx context.Context, voiceName string) (*VoiceState, error)

	// StreamAudio starts synthesizing text in the given voice and returns
	// the lazy frame sequence. Cancelling ctx stops generation.
	StreamAudio(ctx context.Context, state *VoiceState, text string) (Stream, error)
}
