package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/signal"
)

// CoordinatorConfig holds capture parameters.
type CoordinatorConfig struct {
	SampleRate  int
	SampleWidth int
	// ChunkFrames is the number of frames per read. It bounds how quickly a
	// falling capture signal is noticed: 1024 frames at 16kHz is 64ms. A
	// signal raised and lowered within one chunk may be missed.
	ChunkFrames int
	// MinBytes is the buffer size a session must exceed to be transcribed.
	MinBytes int
	// SettleDelay is the pause after each session.
	SettleDelay time.Duration
	// RetryDelay is the pause after the audio source fails to open.
	RetryDelay time.Duration
}

// DefaultCoordinatorConfig returns 16kHz 16-bit capture in 1024-frame chunks.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		SampleRate:  16000,
		SampleWidth: 2,
		ChunkFrames: 1024,
		MinBytes:    2000,
		SettleDelay: 100 * time.Millisecond,
		RetryDelay:  time.Second,
	}
}

// SessionEvent describes one finished capture session.
type SessionEvent struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Bytes     int
	// Audio is the captured PCM. Observers must not modify it.
	Audio []byte
	// Transcribed reports whether the buffer was large enough to transcribe.
	Transcribed bool
	Text        string
	Err         error
}

// SessionObserver is told about every finished session.
type SessionObserver interface {
	ObserveSession(ev SessionEvent)
}

// SessionObserverFunc adapts a function to SessionObserver.
type SessionObserverFunc func(ev SessionEvent)

func (f SessionObserverFunc) ObserveSession(ev SessionEvent) { f(ev) }

// ErrEmptyTranscript is recorded on sessions whose transcript was blank.
var ErrEmptyTranscript = errors.New("empty transcript")

// Coordinator is the capture worker. It waits for the capture signal,
// records until the signal drops, then transcribes and types the result.
// At most one session runs at a time.
type Coordinator struct {
	cfg   CoordinatorConfig
	level *signal.Level
	src   AudioSource
	tr    Transcriber
	typer Typer
	now   func() time.Time

	mu        sync.Mutex
	observers []SessionObserver
	sessions  atomic.Int64
}

// NewCoordinator creates a Coordinator. Zero-valued fields of cfg take
// their DefaultCoordinatorConfig values.
func NewCoordinator(cfg CoordinatorConfig, level *signal.Level, src AudioSource, tr Transcriber, typer Typer) *Coordinator {
	def := DefaultCoordinatorConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.SampleWidth <= 0 {
		cfg.SampleWidth = def.SampleWidth
	}
	if cfg.ChunkFrames <= 0 {
		cfg.ChunkFrames = def.ChunkFrames
	}
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = def.MinBytes
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = def.SettleDelay
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	return &Coordinator{
		cfg:   cfg,
		level: level,
		src:   src,
		tr:    tr,
		typer: typer,
		now:   time.Now,
	}
}

// Observe registers obs for session events. Call before Run.
func (c *Coordinator) Observe(obs SessionObserver) {
	c.mu.Lock()
	c.observers = append(c.observers, obs)
	c.mu.Unlock()
}

// Sessions returns the number of completed capture sessions. A session is
// counted after its observers have been notified.
func (c *Coordinator) Sessions() int {
	return int(c.sessions.Load())
}

// Run loops until ctx is done. Cancellation is honored while waiting for
// the capture signal and between sessions; a session in progress runs to
// completion.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		if err := c.level.Wait(ctx); err != nil {
			return err
		}

		delay := c.cfg.SettleDelay
		if err := c.session(ctx); err != nil {
			log.Printf("Audio capture unavailable: %v", err)
			delay = c.cfg.RetryDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// session runs one capture. It returns an error only when the stream could
// not be opened.
func (c *Coordinator) session(ctx context.Context) error {
	ev := SessionEvent{ID: uuid.NewString(), StartedAt: c.now()}

	stream, err := c.src.Open()
	if err != nil {
		ev.EndedAt = c.now()
		ev.Err = fmt.Errorf("open audio stream: %w", err)
		c.notify(ev)
		return err
	}

	log.Println("Mic recording...")
	buf, readErr := c.record(stream)
	if err := stream.Close(); err != nil {
		log.Printf("Error closing audio stream: %v", err)
	}
	ev.EndedAt = c.now()
	ev.Bytes = len(buf)
	ev.Audio = buf
	if readErr != nil {
		log.Printf("Audio capture stopped: %v", readErr)
		ev.Err = readErr
	}

	if len(buf) > c.cfg.MinBytes {
		ev.Transcribed = true
		text, err := c.tr.Transcribe(ctx, buf, c.cfg.SampleRate, c.cfg.SampleWidth)
		text = strings.TrimSpace(text)
		switch {
		case err != nil:
			log.Printf("Transcription failed: %v", err)
			ev.Err = errors.Join(ev.Err, fmt.Errorf("transcribe: %w", err))
		case text == "":
			log.Println("Transcription was empty")
			ev.Err = errors.Join(ev.Err, ErrEmptyTranscript)
		default:
			c.typer.TypeText(text + " ")
			ev.Text = text
			log.Printf("Typed: %s", text)
		}
	}

	c.notify(ev)
	c.sessions.Add(1)
	return nil
}

// record reads chunks while the capture signal stays raised. Overflowed
// chunks are kept; any other read error ends the session.
func (c *Coordinator) record(stream Stream) ([]byte, error) {
	var buf []byte
	for c.level.IsSet() {
		chunk, err := stream.ReadChunk()
		if err != nil && !errors.Is(err, ErrInputOverflowed) {
			return buf, err
		}
		buf = append(buf, chunk...)
	}
	return buf, nil
}

func (c *Coordinator) notify(ev SessionEvent) {
	c.mu.Lock()
	observers := append([]SessionObserver(nil), c.observers...)
	c.mu.Unlock()
	for _, obs := range observers {
		obs.ObserveSession(ev)
	}
}
