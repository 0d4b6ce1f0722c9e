package speech

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource captures mono 16-bit audio from the default input device.
type PortAudioSource struct {
	sampleRate  int
	chunkFrames int
}

// NewPortAudioSource initializes PortAudio. Close must be called to
// terminate it.
func NewPortAudioSource(sampleRate, chunkFrames int) (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &PortAudioSource{sampleRate: sampleRate, chunkFrames: chunkFrames}, nil
}

// Open starts a new input stream.
func (s *PortAudioSource) Open() (Stream, error) {
	in := make([]int16, s.chunkFrames)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(s.sampleRate), len(in), in)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}
	return &portAudioStream{stream: stream, in: in}, nil
}

// Close terminates PortAudio.
func (s *PortAudioSource) Close() error {
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream *portaudio.Stream
	in     []int16
}

func (p *portAudioStream) ReadChunk() ([]byte, error) {
	err := p.stream.Read()
	if err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, err
	}
	chunk := encodePCM(p.in)
	if err != nil {
		return chunk, ErrInputOverflowed
	}
	return chunk, nil
}

func (p *portAudioStream) Close() error {
	stopErr := p.stream.Stop()
	return errors.Join(stopErr, p.stream.Close())
}
