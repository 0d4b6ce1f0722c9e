// Package tray shows gesture status and the enable toggle in the system tray.
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/status"
)

const barWidth = 10

// Tray represents the system tray application. It is a status.Sink.
type Tray struct {
	onReady    func()
	onToggle   func(enabled bool)
	onOpenPage func()
	onQuit     func()
	enabled    bool
	ready      bool
	mu         sync.RWMutex

	lastLabel gesture.Label
	lastNote  string
	lastBar   string

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuLastAction *systray.MenuItem
}

// New creates a new Tray instance with the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled:   enabled,
		lastLabel: -1,
	}
}

// OnReady sets the callback run once the tray is up.
func (t *Tray) OnReady(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReady = fn
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpenStatus sets the callback for the "Open status page" item.
func (t *Tray) OnOpenStatus(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenPage = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.handleReady, t.onExit)
}

// Quit stops the tray loop, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) handleReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture control")
	systray.AddSeparator()

	t.menuLastAction = systray.AddMenuItem("Last action: none", "Last fired action")
	t.menuLastAction.Disable()
	systray.AddSeparator()

	menuStatus := systray.AddMenuItem("Open status page", "Open the status page in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.ready = true
	onReady := t.onReady
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuStatus.ClickedCh:
				t.handleOpenStatus()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()

	if onReady != nil {
		onReady()
	}
}

func (t *Tray) onExit() {
	t.mu.Lock()
	t.ready = false
	t.mu.Unlock()
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpenStatus() {
	t.mu.RLock()
	callback := t.onOpenPage
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled reflects an enable change made elsewhere, such as the hotkey.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.ready {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Update shows the label in the tray title and progress in the tooltip.
// The tray is only touched when what it shows changes.
func (t *Tray) Update(u status.Update) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}

	if u.Label != t.lastLabel {
		systray.SetTitle(Title(u.Label))
		t.lastLabel = u.Label
	}
	bar := ProgressBar(u.Progress)
	if bar != t.lastBar || u.Note != t.lastNote {
		systray.SetTooltip(Tooltip(u))
		t.lastBar, t.lastNote = bar, u.Note
	}
	if u.Fired != "" {
		t.menuLastAction.SetTitle("Last action: " + u.Fired)
	}
}

// Title is the tray title for label.
func Title(label gesture.Label) string {
	if label == gesture.Scanning {
		return "Mudra"
	}
	return "Mudra: " + label.String()
}

// Tooltip renders label, progress bar and note.
func Tooltip(u status.Update) string {
	s := fmt.Sprintf("%s %s", u.Label, ProgressBar(u.Progress))
	if u.Note != "" {
		s += " " + u.Note
	}
	return s
}

// ProgressBar renders p in [0, 1] as a fixed-width bar.
func ProgressBar(p float64) string {
	p = min(max(p, 0), 1)
	filled := int(p*barWidth + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "]"
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}
