package engine

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestMockEngineStream(t *testing.T) {
	eng := NewMockEngine()
	eng.FrameCount = 3

	state, err := eng.ConditionVoice(context.Background(), "alba")
	if err != nil {
		t.Fatalf("ConditionVoice failed: %v", err)
	}

	stream, err := eng.StreamAudio(context.Background(), state, "Hello")
	if err != nil {
		t.Fatalf("StreamAudio failed: %v", err)
	}
	defer stream.Close()

	frames := 0
	for {
		frame, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if len(frame) != FrameSamples {
			t.Fatalf("frame has %d samples, want %d", len(frame), FrameSamples)
		}
		for i, s := range frame {
			if s < -1 || s > 1 {
				t.Fatalf("sample %d = %v out of range", i, s)
			}
		}
		frames++
	}

	if frames != 3 {
		t.Errorf("stream yielded %d frames, want 3", frames)
	}
	if eng.StreamCalls() != 1 {
		t.Errorf("StreamCalls = %d, want 1", eng.StreamCalls())
	}
}

func TestMockStreamCancellation(t *testing.T) {
	eng := NewMockEngine()
	ctx, cancel := context.WithCancel(context.Background())

	state, _ := eng.ConditionVoice(ctx, "alba")
	stream, err := eng.StreamAudio(ctx, state, "Hello")
	if err != nil {
		t.Fatalf("StreamAudio failed: %v", err)
	}
	defer stream.Close()

	cancel()
	if _, err := stream.Next(); !errors.Is(err, context.Canceled) {
		t.Errorf("Next after cancel = %v, want context.Canceled", err)
	}
}

func TestMockStreamClosedYieldsEOF(t *testing.T) {
	eng := NewMockEngine()
	state, _ := eng.ConditionVoice(context.Background(), "alba")
	stream, _ := eng.StreamAudio(context.Background(), state, "Hello")

	stream.Close()
	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("Next after Close = %v, want io.EOF", err)
	}
}
