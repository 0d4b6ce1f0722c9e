package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperSampleRate is the only sample rate whisper.cpp accepts.
const WhisperSampleRate = 16000

// WhisperTranscriber transcribes locally with a whisper.cpp model.
type WhisperTranscriber struct {
	mu       sync.Mutex
	model    whisper.Model
	language string
}

// NewWhisperTranscriber loads the model at modelPath. An empty language
// leaves the model's default.
func NewWhisperTranscriber(modelPath, language string) (*WhisperTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load whisper model %s: %w", modelPath, err)
	}
	return &WhisperTranscriber{model: model, language: language}, nil
}

// Transcribe runs the model over 16kHz 16-bit mono PCM.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, pcm []byte, sampleRate, sampleWidth int) (string, error) {
	if sampleRate != WhisperSampleRate {
		return "", fmt.Errorf("whisper needs %d Hz audio, got %d", WhisperSampleRate, sampleRate)
	}
	if sampleWidth != 2 {
		return "", fmt.Errorf("whisper transcriber needs 16-bit samples, got %d bytes", sampleWidth)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model == nil {
		return "", errors.New("whisper model closed")
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", err
	}
	if w.language != "" {
		if err := wctx.SetLanguage(w.language); err != nil {
			return "", err
		}
	}

	samples := Float32Samples(PCMBuffer(pcm, sampleRate))
	var cb whisper.SegmentCallback
	if err := wctx.Process(samples, cb); err != nil {
		return "", err
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if text := cleanSegment(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// cleanSegment drops non-speech markers such as "[BLANK_AUDIO]" or "(music)".
func cleanSegment(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]"),
		strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")"):
		return ""
	}
	return text
}

// Close releases the model.
func (w *WhisperTranscriber) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model == nil {
		return nil
	}
	err := w.model.Close()
	w.model = nil
	return err
}
