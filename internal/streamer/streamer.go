// Package streamer writes audio stream sessions: the container header,
// PCM frames in production order, then the trailing silence block. All
// transports share this sequencing so the wire contract cannot drift
// between them.
package streamer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/EmZod/Speak-Turbo/internal/engine"
	"github.com/EmZod/Speak-Turbo/internal/wav"
)

// ErrNoAudio is returned by Drain when the engine yields zero frames.
var ErrNoAudio = errors.New("no audio generated")

// Open resolves the shared engine and the voice's conditioning state, then
// starts generation. Returns the frame stream and the engine sample rate.
// Callers own the stream and must close it.
func Open(ctx context.Context, handle *engine.Handle, states *engine.StateCache, voiceName, text string) (engine.Stream, int, error) {
	eng, err := handle.Resolve(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve engine: %w", err)
	}

	state, err := states.StateFor(ctx, eng, voiceName)
	if err != nil {
		return nil, 0, fmt.Errorf("voice state for %q: %w", voiceName, err)
	}

	stream, err := eng.StreamAudio(ctx, state, text)
	if err != nil {
		return nil, 0, fmt.Errorf("stream audio: %w", err)
	}

	return stream, eng.SampleRate(), nil
}

// Stream writes the streaming-mode session to w: the sentinel-size header,
// each frame's PCM as the engine yields it, then 200 ms of silence. flush,
// if non-nil, runs after the header and after every frame so the client
// observes each chunk at true production time rather than at buffer
// boundaries. A cancelled ctx (client disconnect) stops the frame pump
// without pulling further frames. Returns the number of frames written.
func Stream(ctx context.Context, w io.Writer, flush func(), s engine.Stream, sampleRate int) (int, error) {
	if _, err := w.Write(wav.StreamingHeader(sampleRate)); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	if flush != nil {
		flush()
	}

	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return frames, err
		}

		frame, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return frames, fmt.Errorf("next frame: %w", err)
		}

		if _, err := w.Write(wav.EncodeFrame(frame)); err != nil {
			return frames, fmt.Errorf("write frame: %w", err)
		}
		if flush != nil {
			flush()
		}
		frames++
	}

	if _, err := w.Write(wav.SilenceBlock(sampleRate)); err != nil {
		return frames, fmt.Errorf("write silence: %w", err)
	}
	if flush != nil {
		flush()
	}

	return frames, nil
}

// Drain pulls the entire frame sequence and returns the concatenated PCM
// encoding, for transports that need an exact length up front. Returns
// ErrNoAudio when the sequence ends without a single frame.
func Drain(s engine.Stream) ([]byte, int, error) {
	var pcm []byte
	frames := 0
	for {
		frame, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, frames, fmt.Errorf("next frame: %w", err)
		}
		pcm = append(pcm, wav.EncodeFrame(frame)...)
		frames++
	}

	if frames == 0 {
		return nil, 0, ErrNoAudio
	}
	return pcm, frames, nil
}
