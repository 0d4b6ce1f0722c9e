// Package hotkey registers the global failsafe hotkey.
package hotkey

import (
	"fmt"
	"log"
	"sync"
	"time"

	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"
)

// debounceInterval swallows key repeat while the combination is held.
const debounceInterval = 300 * time.Millisecond

// Handler calls onPress each time the hotkey goes down.
type Handler struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	onPress func()
	stopCh  chan struct{}
	name    string
}

// New creates a Handler.
func New(onPress func()) *Handler {
	return &Handler{onPress: onPress}
}

// Register grabs the combination of mods ("ctrl", "shift") and a single
// letter key, replacing any previous registration.
func (h *Handler) Register(mods []string, key string) error {
	hmods, hkey, err := resolve(mods, key)
	if err != nil {
		return err
	}
	if err := h.Unregister(); err != nil {
		log.Printf("Failed to release previous hotkey: %v", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	hk := hotkey.New(hmods, hkey)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey: %w", err)
	}
	h.hk = hk
	h.stopCh = make(chan struct{})
	h.name = describe(mods, key)
	log.Printf("Failsafe hotkey registered: %s", h.name)

	go h.listen(hk, h.stopCh)
	return nil
}

func (h *Handler) listen(hk *hotkey.Hotkey, stopCh chan struct{}) {
	var lastKeydown time.Time
	for {
		select {
		case <-stopCh:
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			now := time.Now()
			if now.Sub(lastKeydown) < debounceInterval {
				continue
			}
			lastKeydown = now
			if h.onPress != nil {
				h.onPress()
			}
		}
	}
}

// Unregister releases the hotkey.
func (h *Handler) Unregister() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopCh != nil {
		close(h.stopCh)
		h.stopCh = nil
	}
	if h.hk != nil {
		err := h.hk.Unregister()
		h.hk = nil
		return err
	}
	return nil
}

// Current returns the registered combination, e.g. "ctrl+shift+g".
func (h *Handler) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

// RunOnMainThread runs fn on the main thread, which macOS requires for
// hotkey and tray event loops.
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

var modifierMap = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
}

var keyMap = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
}

func resolve(mods []string, key string) ([]hotkey.Modifier, hotkey.Key, error) {
	out := make([]hotkey.Modifier, 0, len(mods))
	for _, m := range mods {
		mod, ok := modifierMap[m]
		if !ok {
			return nil, 0, fmt.Errorf("unsupported modifier %q", m)
		}
		out = append(out, mod)
	}
	k, ok := keyMap[key]
	if !ok {
		return nil, 0, fmt.Errorf("unsupported key %q", key)
	}
	return out, k, nil
}

func describe(mods []string, key string) string {
	s := ""
	for _, m := range mods {
		s += m + "+"
	}
	return s + key
}
