// Package speech runs the background capture worker: it records audio while
// the capture signal is raised, transcribes each session and types the text.
package speech

import (
	"context"
	"errors"
)

// ErrInputOverflowed is returned by Stream.ReadChunk when the device dropped
// samples. The chunk returned alongside it is still usable.
var ErrInputOverflowed = errors.New("audio input overflowed")

// Stream is an open audio input.
type Stream interface {
	// ReadChunk blocks for one fixed-size chunk of little-endian PCM.
	ReadChunk() ([]byte, error)
	Close() error
}

// AudioSource opens audio input streams.
type AudioSource interface {
	Open() (Stream, error)
}

// Transcriber converts raw PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, sampleRate, sampleWidth int) (string, error)
}

// Typer injects text at the keyboard focus.
type Typer interface {
	TypeText(text string)
}
