package gesture

import "fmt"

// Label is a recognized gesture. The set is closed; every Label has a Kind.
type Label int

const (
	Scanning Label = iota
	Unknown
	CursorMode
	SpeechToText
	VictorySpace
	BrightnessUp
	BrightnessDown
	OpenPalmSnap
	FistAltTab
	VolumeUp
	VolumeDown
)

// Labels lists every Label in declaration order.
var Labels = []Label{
	Scanning, Unknown, CursorMode, SpeechToText, VictorySpace,
	BrightnessUp, BrightnessDown, OpenPalmSnap, FistAltTab, VolumeUp, VolumeDown,
}

// Kind groups labels by how the action state machine treats them.
type Kind int

const (
	// KindIdle labels never act or hold toward a threshold.
	KindIdle Kind = iota
	// KindCapture drives the speech capture signal with no hold delay.
	KindCapture
	// KindContinuous acts on every frame (cursor tracking).
	KindContinuous
	// KindAltTab holds alt down and cycles tab on its own cadence.
	KindAltTab
	// KindOneShot fires a single action after a hold.
	KindOneShot
)

// Kind returns how the label is handled.
func (l Label) Kind() Kind {
	switch l {
	case Scanning, Unknown:
		return KindIdle
	case SpeechToText:
		return KindCapture
	case CursorMode:
		return KindContinuous
	case FistAltTab:
		return KindAltTab
	case VictorySpace, BrightnessUp, BrightnessDown, OpenPalmSnap, VolumeUp, VolumeDown:
		return KindOneShot
	}
	panic(fmt.Sprintf("gesture: unhandled label %d", int(l)))
}

// String returns the display name shown in status surfaces.
func (l Label) String() string {
	switch l {
	case Scanning:
		return "Scanning..."
	case Unknown:
		return "Unknown"
	case CursorMode:
		return "Cursor Mode"
	case SpeechToText:
		return "Speech to Text"
	case VictorySpace:
		return "Victory / Space"
	case BrightnessUp:
		return "Three / Brightness Up"
	case BrightnessDown:
		return "Four / Brightness Down"
	case OpenPalmSnap:
		return "Open Palm / Snap"
	case FistAltTab:
		return "Fist / Alt-Tab"
	case VolumeUp:
		return "Volume Up"
	case VolumeDown:
		return "Volume Down"
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// ParseLabel resolves a display name back to its Label.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if l.String() == s {
			return l, nil
		}
	}
	return Unknown, fmt.Errorf("unknown gesture label %q", s)
}

// MarshalText encodes the label by display name.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a display name.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
