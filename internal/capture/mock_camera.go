package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoMoreFrames is returned by a non-looping MockCamera once its frames
// are consumed.
var ErrNoMoreFrames = errors.New("no more frames")

// MockCamera plays back blank or pre-recorded frames for testing.
type MockCamera struct {
	mu      sync.Mutex
	frames  []*gocv.Mat
	blank   int
	index   int
	loop    bool
	running bool
	reads   int
	err     error
}

// NewMockCamera plays back frames, cloning each on read.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop}
}

// NewBlankCamera yields n black 640x480 frames, repeating when loop is set.
func NewBlankCamera(n int, loop bool) *MockCamera {
	return &MockCamera{blank: n, loop: loop}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if c.err != nil {
		return nil, c.err
	}

	total := len(c.frames)
	if total == 0 {
		total = c.blank
	}
	if total == 0 {
		return nil, ErrNoMoreFrames
	}
	if c.index >= total {
		if !c.loop {
			return nil, ErrNoMoreFrames
		}
		c.index = 0
	}

	var frame gocv.Mat
	if len(c.frames) > 0 {
		frame = c.frames[c.index].Clone()
	} else {
		frame = gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	}
	c.index++
	c.reads++

	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {}
func (c *MockCamera) FPS() int       { return DefaultFPS }

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetError makes subsequent reads fail with err. nil restores playback.
func (c *MockCamera) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Reads returns the number of frames handed out.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
