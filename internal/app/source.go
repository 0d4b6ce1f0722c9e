package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

// CameraSource reads frames from a camera and runs hand detection on them.
// Frames are published to an optional preview buffer before detection.
type CameraSource struct {
	camera   capture.Camera
	detector detector.Detector
	preview  *capture.FrameBuffer
}

// NewCameraSource creates a CameraSource. preview may be nil.
func NewCameraSource(camera capture.Camera, det detector.Detector, preview *capture.FrameBuffer) *CameraSource {
	return &CameraSource{camera: camera, detector: det, preview: preview}
}

// Open opens the camera.
func (s *CameraSource) Open() error {
	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	return nil
}

// NextFrame returns the first detected hand, or nil when there is none.
func (s *CameraSource) NextFrame() (*detector.HandLandmarks, error) {
	frame, err := s.camera.ReadFrame()
	if errors.Is(err, capture.ErrNoMoreFrames) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	if s.preview != nil {
		if err := s.preview.Publish(frame); err != nil {
			log.Printf("Error publishing preview: %v", err)
		}
	}

	hands, err := s.detector.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("detect hands: %w", err)
	}
	if len(hands) == 0 {
		return nil, nil
	}
	hand := hands[0]
	return &hand, nil
}

// Close releases the camera and the detector.
func (s *CameraSource) Close() error {
	return errors.Join(s.camera.Close(), s.detector.Close())
}

// ScriptedSource replays a fixed list of hands, one per frame, then
// returns io.EOF. A nil entry is a frame without a hand.
type ScriptedSource struct {
	mu     sync.Mutex
	frames []*detector.HandLandmarks
	next   int
	// OnFrame runs before each frame is returned with the frame's index.
	OnFrame func(i int)
}

// NewScriptedSource creates a ScriptedSource over frames.
func NewScriptedSource(frames []*detector.HandLandmarks) *ScriptedSource {
	return &ScriptedSource{frames: frames}
}

// Repeat returns n copies of hand, for building scripts.
func Repeat(hand *detector.HandLandmarks, n int) []*detector.HandLandmarks {
	out := make([]*detector.HandLandmarks, n)
	for i := range out {
		out[i] = hand
	}
	return out
}

func (s *ScriptedSource) NextFrame() (*detector.HandLandmarks, error) {
	s.mu.Lock()
	if s.next >= len(s.frames) {
		s.mu.Unlock()
		return nil, io.EOF
	}
	i := s.next
	hand := s.frames[i]
	s.next++
	onFrame := s.OnFrame
	s.mu.Unlock()

	if onFrame != nil {
		onFrame(i)
	}
	return hand, nil
}
