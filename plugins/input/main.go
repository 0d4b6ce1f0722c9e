// Package main provides the input plugin: pointer movement, clicks and
// keystrokes. macOS uses cliclick and AppleScript, Linux uses xdotool.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Label  string          `json:"label"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// PointParams is the payload of move-cursor and the result of cursor-position.
type PointParams struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// KeyParams is the payload of the key actions.
type KeyParams struct {
	Key string `json:"key"`
}

// TextParams is the payload of type-text.
type TextParams struct {
	Text string `json:"text"`
}

// backend performs input on one platform.
type backend interface {
	move(x, y int) error
	click() error
	position() (PointParams, error)
	keyPress(key string) error
	keyDown(key string) error
	keyUp(key string) error
	typeText(text string) error
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var b backend = xdotool{}
	if runtime.GOOS == "darwin" {
		b = macOS{}
	}

	data, err := handle(b, req)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}
	writeSuccessResponse(data)
}

// handle dispatches req to b. Only cursor-position returns data.
func handle(b backend, req Request) (any, error) {
	switch req.Action {
	case "move-cursor":
		var p PointParams
		if err := decode(req.Params, &p); err != nil {
			return nil, err
		}
		return nil, b.move(p.X, p.Y)
	case "click":
		return nil, b.click()
	case "cursor-position":
		p, err := b.position()
		if err != nil {
			return nil, err
		}
		return p, nil
	case "key-press", "key-down", "key-up":
		var p KeyParams
		if err := decode(req.Params, &p); err != nil {
			return nil, err
		}
		if p.Key == "" {
			return nil, fmt.Errorf("key is required")
		}
		switch req.Action {
		case "key-press":
			return nil, b.keyPress(p.Key)
		case "key-down":
			return nil, b.keyDown(p.Key)
		}
		return nil, b.keyUp(p.Key)
	case "type-text":
		var p TextParams
		if err := decode(req.Params, &p); err != nil {
			return nil, err
		}
		return nil, b.typeText(p.Text)
	}
	return nil, fmt.Errorf("unknown action: %s", req.Action)
}

func decode(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return fmt.Errorf("params are required")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	return nil
}

// macOS drives the pointer with cliclick and the keyboard with AppleScript.
type macOS struct{}

// appleKeyCodes maps key names to macOS virtual key codes.
var appleKeyCodes = map[string]int{
	"tab":   48,
	"space": 49,
}

// appleModifiers maps modifier key names to their System Events names.
var appleModifiers = map[string]string{
	"alt":     "option",
	"option":  "option",
	"ctrl":    "control",
	"control": "control",
	"shift":   "shift",
	"cmd":     "command",
	"command": "command",
}

func (macOS) move(x, y int) error {
	return run("cliclick", fmt.Sprintf("m:%d,%d", x, y))
}

func (macOS) click() error {
	return run("cliclick", "c:.")
}

func (macOS) position() (PointParams, error) {
	out, err := output("cliclick", "p")
	if err != nil {
		return PointParams{}, err
	}
	return parseCliclick(out)
}

func (macOS) keyPress(key string) error {
	script, err := appleKeyScript(key)
	if err != nil {
		return err
	}
	return runAppleScript(script)
}

func (macOS) keyDown(key string) error {
	mod, ok := appleModifiers[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("key-down supports modifiers only, got %q", key)
	}
	return runAppleScript(fmt.Sprintf(`tell application "System Events" to key down %s`, mod))
}

func (macOS) keyUp(key string) error {
	mod, ok := appleModifiers[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("key-up supports modifiers only, got %q", key)
	}
	return runAppleScript(fmt.Sprintf(`tell application "System Events" to key up %s`, mod))
}

func (macOS) typeText(text string) error {
	return runAppleScript(fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, appleEscape(text)))
}

// appleKeyScript builds the AppleScript that taps key.
func appleKeyScript(key string) (string, error) {
	key = strings.ToLower(key)
	if code, ok := appleKeyCodes[key]; ok {
		return fmt.Sprintf(`tell application "System Events" to key code %d`, code), nil
	}
	if len([]rune(key)) == 1 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, appleEscape(key)), nil
	}
	return "", fmt.Errorf("unsupported key %q", key)
}

func appleEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// parseCliclick parses "x,y" as printed by "cliclick p".
func parseCliclick(out string) (PointParams, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(out), ",")
	if !ok {
		return PointParams{}, fmt.Errorf("unexpected cliclick output %q", out)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return PointParams{}, fmt.Errorf("bad x in %q: %w", out, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return PointParams{}, fmt.Errorf("bad y in %q: %w", out, err)
	}
	return PointParams{X: x, Y: y}, nil
}

// xdotool drives X11 input.
type xdotool struct{}

// xdotoolKeys maps key names to X keysyms.
var xdotoolKeys = map[string]string{
	"alt":   "alt",
	"tab":   "Tab",
	"space": "space",
	"ctrl":  "ctrl",
	"shift": "shift",
}

func xdotoolKey(key string) string {
	if sym, ok := xdotoolKeys[strings.ToLower(key)]; ok {
		return sym
	}
	return key
}

func (xdotool) move(x, y int) error {
	return run("xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y))
}

func (xdotool) click() error {
	return run("xdotool", "click", "1")
}

func (xdotool) position() (PointParams, error) {
	out, err := output("xdotool", "getmouselocation", "--shell")
	if err != nil {
		return PointParams{}, err
	}
	return parseXdotool(out)
}

func (xdotool) keyPress(key string) error { return run("xdotool", "key", xdotoolKey(key)) }
func (xdotool) keyDown(key string) error  { return run("xdotool", "keydown", xdotoolKey(key)) }
func (xdotool) keyUp(key string) error    { return run("xdotool", "keyup", xdotoolKey(key)) }

func (xdotool) typeText(text string) error {
	return run("xdotool", "type", "--", text)
}

// parseXdotool parses the X= and Y= lines of "getmouselocation --shell".
func parseXdotool(out string) (PointParams, error) {
	var p PointParams
	var haveX, haveY bool
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		switch k {
		case "X":
			p.X, haveX = n, true
		case "Y":
			p.Y, haveY = n, true
		}
	}
	if !haveX || !haveY {
		return PointParams{}, fmt.Errorf("unexpected xdotool output %q", out)
	}
	return p, nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response with optional data to stdout.
func writeSuccessResponse(data any) {
	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeErrorResponse(fmt.Sprintf("failed to encode data: %v", err))
			return
		}
		resp.Data = raw
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	return run("osascript", "-e", script)
}

func run(name string, args ...string) error {
	_, err := output(name, args...)
	return err
}

func output(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
