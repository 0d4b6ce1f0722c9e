package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns either a fixed set of hands or, when a sequence is configured,
// one entry of the sequence per Detect call.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	next     int
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence queues per-call results. A nil entry means "no hand".
// Once the sequence is exhausted the last entry is repeated.
func (m *MockDetector) SetSequence(seq [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		i := m.next
		if i >= len(m.sequence) {
			i = len(m.sequence) - 1
		} else {
			m.next++
		}
		return m.sequence[i], nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Reference geometry for synthetic hands: an upright right hand, palm facing
// the camera, wrist near the bottom of the frame.
var (
	mockWrist = Point3D{X: 0.50, Y: 0.80}
	mockMCPs  = [4]Point3D{
		{X: 0.45, Y: 0.60}, // index
		{X: 0.50, Y: 0.58}, // middle
		{X: 0.55, Y: 0.60}, // ring
		{X: 0.60, Y: 0.62}, // pinky
	}
)

// HandPose builds synthetic landmarks whose fingers are extended or curled
// as requested. Extended fingers point straight up; curled fingers fold back
// toward the wrist. An extended thumb points up and out, away from the pinky.
func HandPose(thumb, index, middle, ring, pinky bool) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = mockWrist

	h.Points[ThumbCMC] = Point3D{X: 0.44, Y: 0.74}
	h.Points[ThumbMCP] = Point3D{X: 0.40, Y: 0.68}
	if thumb {
		h.Points[ThumbIP] = Point3D{X: 0.34, Y: 0.64}
		h.Points[ThumbTip] = Point3D{X: 0.28, Y: 0.60}
	} else {
		h.Points[ThumbIP] = Point3D{X: 0.42, Y: 0.66}
		h.Points[ThumbTip] = Point3D{X: 0.50, Y: 0.66}
	}

	extended := [4]bool{index, middle, ring, pinky}
	for f := 0; f < 4; f++ {
		base := IndexMCP + f*4
		mcp := mockMCPs[f]
		h.Points[base] = mcp
		if extended[f] {
			h.Points[base+1] = Point3D{X: mcp.X, Y: mcp.Y - 0.08}
			h.Points[base+2] = Point3D{X: mcp.X, Y: mcp.Y - 0.14}
			h.Points[base+3] = Point3D{X: mcp.X, Y: mcp.Y - 0.20}
		} else {
			h.Points[base+1] = Point3D{X: mcp.X, Y: mcp.Y - 0.03, Z: -0.04}
			h.Points[base+2] = Point3D{X: mcp.X, Y: mcp.Y + 0.02, Z: -0.05}
			h.Points[base+3] = Point3D{X: mcp.X, Y: mcp.Y + 0.05, Z: -0.03}
		}
	}

	return h
}

// ThumbsUpLandmarks returns a fist with the thumb extended and its tip above the IP joint.
func ThumbsUpLandmarks() HandLandmarks {
	return HandPose(true, false, false, false, false)
}

// ThumbsDownLandmarks returns a fist with the thumb extended and its tip below the IP joint.
func ThumbsDownLandmarks() HandLandmarks {
	h := HandPose(true, false, false, false, false)
	h.Points[ThumbIP] = Point3D{X: 0.34, Y: 0.70}
	h.Points[ThumbTip] = Point3D{X: 0.28, Y: 0.72}
	return h
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return HandPose(true, true, true, true, true)
}

// FistLandmarks returns a hand with every finger curled.
func FistLandmarks() HandLandmarks {
	return HandPose(false, false, false, false, false)
}

// PointingLandmarks returns a hand with only the index finger extended,
// its tip at the given normalized position.
func PointingLandmarks(x, y float64) HandLandmarks {
	h := HandPose(false, true, false, false, false)
	dx := x - h.Points[IndexTip].X
	dy := y - h.Points[IndexTip].Y
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// WithPinch returns a copy of h with the thumb tip moved next to the index tip.
func WithPinch(h HandLandmarks) HandLandmarks {
	tip := h.Points[IndexTip]
	h.Points[ThumbTip] = Point3D{X: tip.X + 0.01, Y: tip.Y + 0.01}
	return h
}
