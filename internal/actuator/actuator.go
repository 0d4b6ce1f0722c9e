// Package actuator defines the desktop side effects the action state
// machine can trigger, and adapters that carry them out.
package actuator

// Key names understood by every Actuator.
const (
	KeyAlt        = "alt"
	KeyTab        = "tab"
	KeySpace      = "space"
	KeyVolumeUp   = "volumeup"
	KeyVolumeDown = "volumedown"
)

// DefaultBrightness is assumed until a real reading is available.
const DefaultBrightness = 50

// Actuator performs desktop actions. Implementations must not block the
// caller on slow OS work and must not report failures back; they log them.
// Brightness is the exception: it returns the best known reading.
type Actuator interface {
	MoveCursor(x, y int)
	Click()
	PressKey(name string)
	KeyDown(name string)
	KeyUp(name string)
	SetBrightness(percent int)
	Brightness() int
	SaveScreenshot(path string)
	TypeText(text string)
}

// CursorPositioner is implemented by actuators that can read the current
// pointer position.
type CursorPositioner interface {
	CursorPosition() (x, y int, ok bool)
}

// ClampPercent limits p to [0, 100].
func ClampPercent(p int) int {
	return min(max(p, 0), 100)
}
