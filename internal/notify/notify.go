// Package notify shows desktop notifications for capture sessions and
// pause state.
package notify

import (
	"errors"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/ayusman/mudra/internal/speech"
)

const appName = "Mudra"

// maxMessage is the longest message shown before truncation.
const maxMessage = 100

// Notifier sends desktop notifications.
type Notifier struct {
	mu      sync.RWMutex
	enabled bool
	send    func(title, message, icon string) error
}

// New creates a Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, send: beeep.Notify}
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	n.enabled = enabled
	n.mu.Unlock()
}

// Enabled reports whether notifications are shown.
func (n *Notifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Paused tells the user gesture control is off.
func (n *Notifier) Paused() {
	n.notify("Paused", "Gesture control is off")
}

// Resumed tells the user gesture control is back on.
func (n *Notifier) Resumed() {
	n.notify("Resumed", "Gesture control is on")
}

// ObserveSession reports the outcome of a transcribed capture session.
func (n *Notifier) ObserveSession(ev speech.SessionEvent) {
	switch {
	case ev.Text != "":
		n.notify("Typed", truncate(ev.Text))
	case errors.Is(ev.Err, speech.ErrEmptyTranscript):
		n.notify("Nothing heard", "The recording had no speech")
	case ev.Err != nil:
		n.notify("Speech error", truncate(ev.Err.Error()))
	}
}

func (n *Notifier) notify(title, message string) {
	n.mu.RLock()
	enabled, send := n.enabled, n.send
	n.mu.RUnlock()
	if !enabled {
		return
	}
	// Notification failures are not worth surfacing.
	_ = send(appName+": "+title, message, "")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessage {
		return s
	}
	return string(r[:maxMessage]) + "..."
}
