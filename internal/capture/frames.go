package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// FrameBuffer holds the most recent frame as JPEG for preview streams.
// Frames are only encoded while at least one viewer is watching.
type FrameBuffer struct {
	mu      sync.Mutex
	viewers int
	jpeg    []byte
	seq     uint64
	updated chan struct{}
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{updated: make(chan struct{})}
}

// Watch registers a viewer. The returned function unregisters it.
func (b *FrameBuffer) Watch() (stop func()) {
	b.mu.Lock()
	b.viewers++
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.viewers--
			b.mu.Unlock()
		})
	}
}

// Watching reports whether any viewer is registered.
func (b *FrameBuffer) Watching() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewers > 0
}

// Publish encodes frame as JPEG when someone is watching.
func (b *FrameBuffer) Publish(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() || !b.Watching() {
		return nil
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode preview frame: %w", err)
	}
	defer buf.Close()

	b.PublishJPEG(append([]byte(nil), buf.GetBytes()...))
	return nil
}

// PublishJPEG stores an already encoded frame and wakes waiting viewers.
func (b *FrameBuffer) PublishJPEG(jpeg []byte) {
	b.mu.Lock()
	b.jpeg = jpeg
	b.seq++
	close(b.updated)
	b.updated = make(chan struct{})
	b.mu.Unlock()
}

// Latest returns the most recent frame and its sequence number. The
// returned channel is closed when a newer frame is published.
func (b *FrameBuffer) Latest() (jpeg []byte, seq uint64, next <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq, b.updated
}
