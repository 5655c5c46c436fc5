// Package wav builds RIFF/WAVE containers around raw PCM audio, for both
// complete payloads and streams of unknown final length.
package wav

import "math"

// WAV format constants.
const (
	// HeaderSize is the size of a standard WAV file header in bytes.
	HeaderSize = 44

	// FormatPCM is the audio format code for uncompressed PCM.
	FormatPCM = 1
)

// Fixed output format of the synthesis engine.
const (
	// SampleRate is the engine's output sample rate (24000 Hz).
	SampleRate = 24000

	// Channels is the engine's output channel count (mono).
	Channels = 1

	// BitsPerSample is the engine's output bit depth (16-bit).
	BitsPerSample = 16
)

// StreamingDataSize is the data-chunk size declared when the final payload
// length is not known. It is an interoperability hack, not a real length:
// permissive players treat the maximal size as "read until EOF".
const StreamingDataSize = 0x7FFFFFFF

// silenceSeconds is the duration of the trailing silence block.
const silenceSeconds = 0.2

// Header builds a 44-byte PCM WAV header declaring dataSize payload bytes.
func Header(sampleRate, channels, bitsPerSample int, dataSize uint32) []byte {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	header := make([]byte, HeaderSize)

	// RIFF header
	copy(header[0:4], "RIFF")
	PutLE32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")

	// fmt subchunk
	copy(header[12:16], "fmt ")
	PutLE32(header[16:20], 16) // subchunk size
	PutLE16(header[20:22], FormatPCM)
	PutLE16(header[22:24], uint16(channels))
	PutLE32(header[24:28], uint32(sampleRate))
	PutLE32(header[28:32], uint32(byteRate))
	PutLE16(header[32:34], uint16(blockAlign))
	PutLE16(header[34:36], uint16(bitsPerSample))

	// data subchunk
	copy(header[36:40], "data")
	PutLE32(header[40:44], dataSize)

	return header
}

// StreamingHeader builds a header for a 16-bit mono stream whose final
// length is unknown, declaring the maximal sentinel size.
func StreamingHeader(sampleRate int) []byte {
	return Header(sampleRate, Channels, BitsPerSample, StreamingDataSize)
}

// ExactHeader builds a header for a fully assembled 16-bit mono payload of
// dataSize bytes.
func ExactHeader(sampleRate, dataSize int) []byte {
	return Header(sampleRate, Channels, BitsPerSample, uint32(dataSize))
}

// WrapRawPCM adds a WAV header to a complete raw PCM payload.
func WrapRawPCM(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	header := Header(sampleRate, channels, bitsPerSample, uint32(len(pcm)))
	return append(header, pcm...)
}

// EncodeFrame converts floating-point samples to 16-bit signed little-endian
// PCM. Samples are clamped to [-1, 1] before scaling: models routinely
// overshoot the nominal range, and an unclamped sample would wrap around.
func EncodeFrame(frame []float32) []byte {
	out := make([]byte, len(frame)*2)
	for i, s := range frame {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		PutLE16(out[2*i:], uint16(int16(s*32767)))
	}
	return out
}

// SilenceBlock returns 200 ms of zero-valued 16-bit mono samples. Appended
// once at the end of every streamed session so playback buffering in
// downstream players does not clip the tail of the utterance.
func SilenceBlock(sampleRate int) []byte {
	samples := int(math.Round(float64(sampleRate) * silenceSeconds))
	return make([]byte, samples*2)
}

// PutLE16 writes a uint16 value in little-endian format to a byte slice.
func PutLE16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// PutLE32 writes a uint32 value in little-endian format to a byte slice.
func PutLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
