// Package app runs the gesture pipeline: landmarks in, desktop actions and
// status updates out.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/signal"
	"github.com/ayusman/mudra/internal/status"
)

// NotePaused is the status note while detection is disabled.
const NotePaused = "PAUSED"

// DefaultErrorDelay is the pause after a failed frame read.
const DefaultErrorDelay = 100 * time.Millisecond

// LandmarkSource yields the landmarks of one frame per call. A nil hand
// means no hand was detected. NextFrame returns io.EOF when the source is
// exhausted.
type LandmarkSource interface {
	NextFrame() (*detector.HandLandmarks, error)
}

// Labeler is implemented by actuators that stamp the current gesture label
// onto what they record, such as actuator.Journal.
type Labeler interface {
	SetLabel(label string)
}

// Config holds configuration options for the pipeline.
type Config struct {
	Thresholds gesture.Thresholds
	VoteWindow int
	// ResetVoterOnLoss empties the voting window on frames without a hand.
	ResetVoterOnLoss bool
	// Table is the signature mapping. nil selects gesture.DefaultTable.
	Table   gesture.Table
	Action  action.Config
	Enabled bool
	// ErrorDelay is the pause after a frame error. Zero selects
	// DefaultErrorDelay.
	ErrorDelay time.Duration
	// OnError is told about the first error of each run of failed frames.
	OnError func(err error)
	// Now overrides the frame clock, for replaying recorded frames.
	Now func() time.Time
}

// App drives one pipeline iteration per frame: extract, vote, classify,
// step the action machine, publish status.
type App struct {
	config     Config
	source     LandmarkSource
	voter      *gesture.Voter
	classifier *gesture.Classifier
	machine    *action.Machine
	labeler    Labeler
	sink       status.Sink
	now        func() time.Time

	mu        sync.Mutex
	enabled   bool
	release   bool
	listeners []func(enabled bool)
	running   bool

	frames atomic.Int64
}

// New creates an App reading from source and actuating through act.
// capture is raised while the speech gesture is held and may be nil. sink
// may be nil.
func New(config Config, source LandmarkSource, act actuator.Actuator, capture *signal.Level, sink status.Sink) (*App, error) {
	if source == nil {
		return nil, errors.New("landmark source is required")
	}
	if act == nil {
		return nil, errors.New("actuator is required")
	}
	classifier, err := gesture.NewClassifier(config.Table)
	if err != nil {
		return nil, err
	}
	if config.Thresholds == (gesture.Thresholds{}) {
		config.Thresholds = gesture.DefaultThresholds()
	}
	if config.ErrorDelay <= 0 {
		config.ErrorDelay = DefaultErrorDelay
	}
	if sink == nil {
		sink = status.Multi(nil)
	}

	a := &App{
		config:     config,
		source:     source,
		voter:      gesture.NewVoter(config.VoteWindow),
		classifier: classifier,
		machine:    action.New(config.Action, act, capture),
		sink:       sink,
		now:        time.Now,
		enabled:    config.Enabled,
	}
	if config.Now != nil {
		a.now = config.Now
	}
	if l, ok := act.(Labeler); ok {
		a.labeler = l
	}
	return a, nil
}

// SetEnabled enables or disables gesture detection. Disabling releases a
// held alt key and the capture signal on the next frame. Listeners run
// only when the state changes.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	if a.enabled == enabled {
		a.mu.Unlock()
		return
	}
	a.enabled = enabled
	if !enabled {
		a.release = true
	}
	listeners := append([]func(bool){}, a.listeners...)
	a.mu.Unlock()

	if enabled {
		log.Println("Gesture detection enabled")
	} else {
		log.Println("Gesture detection paused")
	}
	for _, fn := range listeners {
		fn(enabled)
	}
}

// Toggle flips the enabled state and returns the new value.
func (a *App) Toggle() bool {
	enabled := !a.IsEnabled()
	a.SetEnabled(enabled)
	return enabled
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// OnEnabledChange registers fn to be called after each enable change.
func (a *App) OnEnabledChange(fn func(enabled bool)) {
	a.mu.Lock()
	a.listeners = append(a.listeners, fn)
	a.mu.Unlock()
}

// Frames returns the number of frames processed.
func (a *App) Frames() int {
	return int(a.frames.Load())
}

// Machine returns the action machine. It must only be inspected while the
// pipeline is not running.
func (a *App) Machine() *action.Machine {
	return a.machine
}

// Run processes frames until ctx is done or the source is exhausted. On
// return the machine is released, so no key stays held.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("pipeline already running")
	}
	a.running = true
	a.mu.Unlock()

	log.Println("Detection pipeline started")
	defer func() {
		a.machine.Release()
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
		log.Println("Detection pipeline stopped")
	}()

	return a.runPipeline(ctx)
}
