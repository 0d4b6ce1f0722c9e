package actuator

import (
	"context"
	"log"
	"sync"

	"github.com/ayusman/mudra/internal/plugin"
)

// Plugin and action names used by PluginActuator.
const (
	InputPlugin  = "input"
	SystemPlugin = "system-control"

	ActionMoveCursor     = "move-cursor"
	ActionClick          = "click"
	ActionCursorPosition = "cursor-position"
	ActionKeyPress       = "key-press"
	ActionKeyDown        = "key-down"
	ActionKeyUp          = "key-up"
	ActionTypeText       = "type-text"

	ActionBrightnessGet = "brightness-get"
	ActionBrightnessSet = "brightness-set"
	ActionScreenshot    = "screenshot"
	ActionVolumeUp      = "volume-up"
	ActionVolumeDown    = "volume-down"
)

// DefaultQueueSize is the number of pending calls a PluginActuator buffers.
const DefaultQueueSize = 64

// PluginLookup resolves plugins by name.
type PluginLookup interface {
	Get(name string) (*plugin.Plugin, error)
}

// PluginRunner executes a plugin request.
type PluginRunner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

type call struct {
	plugin string
	req    *plugin.Request
}

// KeyParams is the payload of key-press, key-down and key-up.
type KeyParams struct {
	Key string `json:"key"`
}

// PointParams is the payload of move-cursor and the result of cursor-position.
type PointParams struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TextParams is the payload of type-text.
type TextParams struct {
	Text string `json:"text"`
}

// BrightnessParams is the payload of brightness-set and the result of
// brightness-get.
type BrightnessParams struct {
	Percent int `json:"percent"`
}

// PathParams is the payload of screenshot.
type PathParams struct {
	Path string `json:"path"`
}

// PluginActuator carries out actions through the input and system-control
// plugins.
//
// Calls that return nothing are queued and run in order on a single
// dispatch goroutine, so KeyDown("alt") always reaches the OS before the
// PressKey("tab") that follows it. When the queue is full the call is
// dropped and logged. Brightness and CursorPosition run synchronously,
// bounded by the runner's timeout.
type PluginActuator struct {
	lookup PluginLookup
	runner PluginRunner

	qmu    sync.RWMutex
	queue  chan call
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	stop   context.CancelFunc

	mu         sync.Mutex
	brightness int
}

// NewPluginActuator creates a PluginActuator and starts its dispatcher.
// A non-positive queueSize selects DefaultQueueSize.
func NewPluginActuator(lookup PluginLookup, runner PluginRunner, queueSize int) *PluginActuator {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &PluginActuator{
		lookup:     lookup,
		runner:     runner,
		queue:      make(chan call, queueSize),
		ctx:        ctx,
		stop:       cancel,
		brightness: DefaultBrightness,
	}
	a.wg.Add(1)
	go a.dispatch()
	return a
}

func (a *PluginActuator) dispatch() {
	defer a.wg.Done()
	for c := range a.queue {
		if _, err := a.run(c.plugin, c.req); err != nil {
			log.Printf("Actuator %s/%s failed: %v", c.plugin, c.req.Action, err)
		}
	}
}

func (a *PluginActuator) run(name string, req *plugin.Request) (*plugin.Response, error) {
	p, err := a.lookup.Get(name)
	if err != nil {
		return nil, err
	}
	resp, err := a.runner.Execute(a.ctx, p, req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *PluginActuator) enqueue(name, action string, params any) {
	req, err := plugin.NewRequest(action, params)
	if err != nil {
		log.Printf("Actuator %s/%s: %v", name, action, err)
		return
	}
	a.qmu.RLock()
	defer a.qmu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- call{plugin: name, req: req}:
	default:
		log.Printf("Actuator queue full, dropping %s/%s", name, action)
	}
}

func (a *PluginActuator) MoveCursor(x, y int) {
	a.enqueue(InputPlugin, ActionMoveCursor, PointParams{X: x, Y: y})
}

func (a *PluginActuator) Click() {
	a.enqueue(InputPlugin, ActionClick, nil)
}

func (a *PluginActuator) PressKey(name string) {
	switch name {
	case KeyVolumeUp:
		a.enqueue(SystemPlugin, ActionVolumeUp, nil)
	case KeyVolumeDown:
		a.enqueue(SystemPlugin, ActionVolumeDown, nil)
	default:
		a.enqueue(InputPlugin, ActionKeyPress, KeyParams{Key: name})
	}
}

func (a *PluginActuator) KeyDown(name string) {
	a.enqueue(InputPlugin, ActionKeyDown, KeyParams{Key: name})
}

func (a *PluginActuator) KeyUp(name string) {
	a.enqueue(InputPlugin, ActionKeyUp, KeyParams{Key: name})
}

// SetBrightness queues the change and records percent as the last known
// reading.
func (a *PluginActuator) SetBrightness(percent int) {
	percent = ClampPercent(percent)
	a.mu.Lock()
	a.brightness = percent
	a.mu.Unlock()
	a.enqueue(SystemPlugin, ActionBrightnessSet, BrightnessParams{Percent: percent})
}

// Brightness reads the display brightness. On failure it returns the last
// known value.
func (a *PluginActuator) Brightness() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	resp, err := a.run(SystemPlugin, &plugin.Request{Action: ActionBrightnessGet})
	if err != nil {
		log.Printf("Reading brightness failed, using %d: %v", a.brightness, err)
		return a.brightness
	}
	var out BrightnessParams
	if err := resp.Decode(&out); err != nil {
		log.Printf("Bad brightness reading, using %d: %v", a.brightness, err)
		return a.brightness
	}
	a.brightness = ClampPercent(out.Percent)
	return a.brightness
}

func (a *PluginActuator) SaveScreenshot(path string) {
	a.enqueue(SystemPlugin, ActionScreenshot, PathParams{Path: path})
}

func (a *PluginActuator) TypeText(text string) {
	a.enqueue(InputPlugin, ActionTypeText, TextParams{Text: text})
}

// CursorPosition reads the pointer position from the input plugin.
func (a *PluginActuator) CursorPosition() (x, y int, ok bool) {
	resp, err := a.run(InputPlugin, &plugin.Request{Action: ActionCursorPosition})
	if err != nil {
		log.Printf("Reading cursor position failed: %v", err)
		return 0, 0, false
	}
	var p PointParams
	if err := resp.Decode(&p); err != nil {
		return 0, 0, false
	}
	return p.X, p.Y, true
}

// Close stops accepting calls, runs what is already queued and waits for
// the dispatcher to exit. Calls made after Close are dropped.
func (a *PluginActuator) Close() {
	a.qmu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.qmu.Unlock()
	a.wg.Wait()
	a.stop()
}
