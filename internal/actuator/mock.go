package actuator

import (
	"fmt"
	"sync"
)

// Call is one recorded MockActuator invocation.
type Call struct {
	Method string
	Arg    string
}

func (c Call) String() string {
	if c.Arg == "" {
		return c.Method
	}
	return c.Method + "(" + c.Arg + ")"
}

// MockActuator records calls for testing.
type MockActuator struct {
	mu         sync.Mutex
	calls      []Call
	brightness int
	cursorX    int
	cursorY    int
	hasCursor  bool
}

// NewMockActuator creates a MockActuator with brightness at DefaultBrightness.
func NewMockActuator() *MockActuator {
	return &MockActuator{brightness: DefaultBrightness}
}

func (m *MockActuator) add(method, arg string) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Method: method, Arg: arg})
	m.mu.Unlock()
}

func (m *MockActuator) MoveCursor(x, y int) { m.add("MoveCursor", fmt.Sprintf("%d,%d", x, y)) }
func (m *MockActuator) Click() { m.add("Click", "") }
func (m *MockActuator) PressKey(name string) { m.add("PressKey", name) }
func (m *MockActuator) KeyDown(name string) { m.add("KeyDown", name) }
func (m *MockActuator) KeyUp(name string) { m.add("KeyUp", name) }
func (m *MockActuator) SaveScreenshot(path string) { m.add("SaveScreenshot", path) }
func (m *MockActuator) TypeText(text string) { m.add("TypeText", text) }

func (m *MockActuator) SetBrightness(percent int) {
	m.mu.Lock()
	m.brightness = percent
	m.mu.Unlock()
	m.add("SetBrightness", fmt.Sprintf("%d", percent))
}

func (m *MockActuator) Brightness() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brightness
}

// SetCursor makes CursorPosition report (x, y).
func (m *MockActuator) SetCursor(x, y int) {
	m.mu.Lock()
	m.cursorX, m.cursorY, m.hasCursor = x, y, true
	m.mu.Unlock()
}

func (m *MockActuator) CursorPosition() (int, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursorX, m.cursorY, m.hasCursor
}

// Calls returns a copy of the recorded calls.
func (m *MockActuator) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Count returns how many times method was called.
func (m *MockActuator) Count(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (m *MockActuator) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}
