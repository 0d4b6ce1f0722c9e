package action

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the timing and geometry parameters of a Machine.
type Config struct {
	// ActionHold is how long a one-shot gesture must be held before it fires.
	ActionHold time.Duration
	// MinGap is the minimum time between two one-shot fires.
	MinGap time.Duration
	// AltTabHold is how long the fist must be held before alt goes down.
	AltTabHold time.Duration
	// AltTabRepeat is the cadence of further tab presses while alt is held.
	AltTabRepeat time.Duration
	// ClickCooldown rate-limits pinch clicks. It is independent of MinGap.
	ClickCooldown time.Duration

	// PinchThreshold is the thumb-tip to index-tip distance, in normalized
	// units, below which a pinch clicks.
	PinchThreshold float64
	// Smoothing is the per-frame fraction of the remaining distance the
	// cursor moves toward its target.
	Smoothing float64
	// Margin and Span select the part of the camera frame mapped onto the
	// screen: normalized x in [Margin, Margin+Span] covers the full width.
	Margin float64
	Span   float64

	ScreenWidth  int
	ScreenHeight int

	// BrightnessStep is the percentage added or removed per fire.
	BrightnessStep int
	// ScreenshotDir receives snap_<unix>.png files.
	ScreenshotDir string

	// RepeatWhileHeld re-fires a held one-shot gesture every MinGap instead
	// of once per hold.
	RepeatWhileHeld bool
}

// DefaultConfig returns the standard timings for a 1920x1080 screen.
func DefaultConfig() Config {
	return Config{
		ActionHold:     800 * time.Millisecond,
		MinGap:         time.Second,
		AltTabHold:     500 * time.Millisecond,
		AltTabRepeat:   time.Second,
		ClickCooldown:  300 * time.Millisecond,
		PinchThreshold: 0.04,
		Smoothing:      0.25,
		Margin:         0.1,
		Span:           0.8,
		ScreenWidth:    1920,
		ScreenHeight:   1080,
		BrightnessStep: 10,
		ScreenshotDir:  ".",
	}
}

// Validate reports every out-of-range field.
func (c Config) Validate() error {
	var errs []error
	for _, f := range []struct {
		name string
		d    time.Duration
	}{
		{"action hold", c.ActionHold},
		{"alt-tab hold", c.AltTabHold},
		{"alt-tab repeat", c.AltTabRepeat},
	} {
		if f.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", f.name, f.d))
		}
	}
	if c.MinGap < 0 {
		errs = append(errs, fmt.Errorf("min gap must not be negative, got %s", c.MinGap))
	}
	if c.ClickCooldown < 0 {
		errs = append(errs, fmt.Errorf("click cooldown must not be negative, got %s", c.ClickCooldown))
	}
	if c.PinchThreshold <= 0 {
		errs = append(errs, fmt.Errorf("pinch threshold must be positive, got %g", c.PinchThreshold))
	}
	if c.Smoothing <= 0 || c.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("smoothing must be in (0, 1], got %g", c.Smoothing))
	}
	if c.Span <= 0 {
		errs = append(errs, fmt.Errorf("span must be positive, got %g", c.Span))
	}
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		errs = append(errs, fmt.Errorf("screen size must be positive, got %dx%d", c.ScreenWidth, c.ScreenHeight))
	}
	if c.BrightnessStep <= 0 || c.BrightnessStep > 100 {
		errs = append(errs, fmt.Errorf("brightness step must be in [1, 100], got %d", c.BrightnessStep))
	}
	return errors.Join(errs...)
}
