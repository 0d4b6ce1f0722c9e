// Package action turns the per-frame gesture label into timed, debounced
// desktop actions.
//
// A Machine is not a set of named states. Each frame it re-evaluates the
// triple (label, time held, time since last fire) in a fixed order:
// label change, capture signal, cursor, alt-tab, one-shot.
package action

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/signal"
)

// Status notes attached to a Result.
const (
	NoteRecording  = "RECORDING..."
	NoteProcessing = "Processing Audio..."
	NoteClick      = "Click"
	NoteAltHeld    = "ALT HELD"
	NoteSwitched   = "SWITCHED"
	NoteFired      = "FIRED"
)

// Action names what a Step actuated, if anything.
type Action string

const (
	None           Action = ""
	Click          Action = "click"
	AltDown        Action = "alt-down"
	AltCycle       Action = "alt-cycle"
	AltRelease     Action = "alt-release"
	Space          Action = "space"
	BrightnessUp   Action = "brightness-up"
	BrightnessDown Action = "brightness-down"
	Screenshot     Action = "screenshot"
	VolumeUp       Action = "volume-up"
	VolumeDown     Action = "volume-down"
)

// Result is the outcome of one Step, for status surfaces.
type Result struct {
	Label    gesture.Label
	Progress float64
	Note     string
	Fired    Action
}

// State is a snapshot of a Machine's hold state.
type State struct {
	Current        gesture.Label
	StableSince    time.Time
	LastFiredAt    time.Time
	FiredThisHold  bool
	AltHeld        bool
	LastAltCycleAt time.Time
	LastClickAt    time.Time
	CursorX        float64
	CursorY        float64
}

// Machine owns every piece of hold state. It is driven by a single
// goroutine and is not safe for concurrent use.
type Machine struct {
	cfg     Config
	act     actuator.Actuator
	capture *signal.Level

	tracking       bool
	lastStep       time.Time
	current        gesture.Label
	stableSince    time.Time
	lastFiredAt    time.Time
	firedThisHold  bool
	altHeld        bool
	lastAltCycleAt time.Time
	lastClickAt    time.Time

	cursor cursor
}

// New creates a Machine. Zero-valued fields of cfg take their DefaultConfig
// values. capture may be nil when speech capture is disabled.
func New(cfg Config, act actuator.Actuator, capture *signal.Level) *Machine {
	if capture == nil {
		capture = signal.NewLevel()
	}
	return &Machine{
		cfg:     withDefaults(cfg),
		act:     act,
		capture: capture,
	}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.ActionHold <= 0 {
		cfg.ActionHold = def.ActionHold
	}
	if cfg.MinGap <= 0 {
		cfg.MinGap = def.MinGap
	}
	if cfg.ClickCooldown <= 0 {
		cfg.ClickCooldown = def.ClickCooldown
	}
	if cfg.AltTabHold <= 0 {
		cfg.AltTabHold = def.AltTabHold
	}
	if cfg.AltTabRepeat <= 0 {
		cfg.AltTabRepeat = def.AltTabRepeat
	}
	if cfg.PinchThreshold <= 0 {
		cfg.PinchThreshold = def.PinchThreshold
	}
	if cfg.Smoothing <= 0 || cfg.Smoothing > 1 {
		cfg.Smoothing = def.Smoothing
	}
	if cfg.Span <= 0 {
		cfg.Margin, cfg.Span = def.Margin, def.Span
	}
	if cfg.ScreenWidth <= 0 || cfg.ScreenHeight <= 0 {
		cfg.ScreenWidth, cfg.ScreenHeight = def.ScreenWidth, def.ScreenHeight
	}
	if cfg.BrightnessStep <= 0 {
		cfg.BrightnessStep = def.BrightnessStep
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = def.ScreenshotDir
	}
	return cfg
}

// Config returns the effective configuration.
func (m *Machine) Config() Config {
	return m.cfg
}

// Step advances the machine by one frame. hand is the frame's landmarks
// and is only read in cursor mode; it is nil when no hand is tracked.
// A now earlier than the previous Step is treated as the previous now.
func (m *Machine) Step(now time.Time, label gesture.Label, hand *detector.HandLandmarks) Result {
	if now.Before(m.lastStep) {
		now = m.lastStep
	}
	m.lastStep = now

	res := Result{Label: label}

	if !m.tracking || label != m.current {
		m.current = label
		m.stableSince = now
		m.firedThisHold = false
		m.tracking = true
	}
	hold := now.Sub(m.stableSince)
	kind := label.Kind()

	if kind == gesture.KindCapture {
		m.capture.Set()
		res.Progress = 1
		res.Note = NoteRecording
	} else if m.capture.Clear() {
		res.Note = NoteProcessing
	}

	if kind == gesture.KindContinuous && hand != nil {
		m.stepCursor(now, hand, &res)
	}

	if kind == gesture.KindAltTab {
		m.stepAltTab(now, hold, &res)
		return res
	}
	if m.altHeld {
		m.releaseAlt()
		res.Note = NoteSwitched
		res.Fired = AltRelease
		return res
	}

	if kind == gesture.KindOneShot {
		m.stepOneShot(now, hold, label, &res)
	}
	return res
}

func (m *Machine) stepCursor(now time.Time, hand *detector.HandLandmarks, res *Result) {
	tip := hand.Points[detector.IndexTip]
	tx := (tip.X - m.cfg.Margin) * float64(m.cfg.ScreenWidth) / m.cfg.Span
	ty := (tip.Y - m.cfg.Margin) * float64(m.cfg.ScreenHeight) / m.cfg.Span

	if !m.cursor.init {
		if cp, ok := m.act.(actuator.CursorPositioner); ok {
			if x, y, ok := cp.CursorPosition(); ok {
				m.cursor.seed(float64(x), float64(y))
			}
		}
		if !m.cursor.init {
			m.cursor.seed(tx, ty)
		}
	}

	m.cursor.approach(tx, ty, m.cfg.Smoothing)
	x, y := m.cursor.pixel(m.cfg.ScreenWidth, m.cfg.ScreenHeight)
	m.act.MoveCursor(x, y)

	if hand.Distance(detector.ThumbTip, detector.IndexTip) < m.cfg.PinchThreshold &&
		now.Sub(m.lastClickAt) > m.cfg.ClickCooldown {
		m.act.Click()
		m.lastClickAt = now
		res.Note = NoteClick
		res.Fired = Click
	}
}

func (m *Machine) stepAltTab(now time.Time, hold time.Duration, res *Result) {
	res.Progress = fraction(hold, m.cfg.AltTabHold)
	if hold < m.cfg.AltTabHold {
		return
	}
	switch {
	case !m.altHeld:
		m.act.KeyDown(actuator.KeyAlt)
		m.act.PressKey(actuator.KeyTab)
		m.altHeld = true
		m.lastAltCycleAt = now
		res.Note = NoteAltHeld
		res.Fired = AltDown
	case now.Sub(m.lastAltCycleAt) > m.cfg.AltTabRepeat:
		m.act.PressKey(actuator.KeyTab)
		m.lastAltCycleAt = now
		res.Fired = AltCycle
	}
}

func (m *Machine) stepOneShot(now time.Time, hold time.Duration, label gesture.Label, res *Result) {
	res.Progress = fraction(hold, m.cfg.ActionHold)

	sinceFire := now.Sub(m.lastFiredAt)
	if m.firedThisHold && m.cfg.RepeatWhileHeld && sinceFire > m.cfg.MinGap {
		m.firedThisHold = false
	}
	if res.Progress < 1 || m.firedThisHold || sinceFire <= m.cfg.MinGap {
		return
	}

	res.Fired = m.fire(now, label)
	res.Note = NoteFired
	m.lastFiredAt = now
	m.firedThisHold = true
}

func (m *Machine) fire(now time.Time, label gesture.Label) Action {
	switch label {
	case gesture.VictorySpace:
		m.act.PressKey(actuator.KeySpace)
		return Space
	case gesture.BrightnessUp:
		m.act.SetBrightness(actuator.ClampPercent(m.act.Brightness() + m.cfg.BrightnessStep))
		return BrightnessUp
	case gesture.BrightnessDown:
		m.act.SetBrightness(actuator.ClampPercent(m.act.Brightness() - m.cfg.BrightnessStep))
		return BrightnessDown
	case gesture.OpenPalmSnap:
		m.act.SaveScreenshot(ScreenshotPath(m.cfg.ScreenshotDir, now))
		return Screenshot
	case gesture.VolumeUp:
		m.act.PressKey(actuator.KeyVolumeUp)
		return VolumeUp
	case gesture.VolumeDown:
		m.act.PressKey(actuator.KeyVolumeDown)
		return VolumeDown
	}
	panic(fmt.Sprintf("action: one-shot label %v has no action", label))
}

func (m *Machine) releaseAlt() {
	m.act.KeyUp(actuator.KeyAlt)
	m.altHeld = false
}

// Release lets go of a held alt key and clears the capture signal. The
// current hold is forgotten, so a gesture must be re-established.
func (m *Machine) Release() {
	if m.altHeld {
		m.releaseAlt()
	}
	m.capture.Clear()
	m.tracking = false
	m.firedThisHold = false
}

// State returns a snapshot of the hold state.
func (m *Machine) State() State {
	return State{
		Current:        m.current,
		StableSince:    m.stableSince,
		LastFiredAt:    m.lastFiredAt,
		FiredThisHold:  m.firedThisHold,
		AltHeld:        m.altHeld,
		LastAltCycleAt: m.lastAltCycleAt,
		LastClickAt:    m.lastClickAt,
		CursorX:        m.cursor.x,
		CursorY:        m.cursor.y,
	}
}

// ScreenshotPath returns dir/snap_<unix seconds>.png.
func ScreenshotPath(dir string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("snap_%d.png", at.Unix()))
}

func fraction(hold, of time.Duration) float64 {
	return min(float64(hold)/float64(of), 1)
}
