// Package main provides the system control plugin: display brightness,
// screenshots and volume. macOS uses AppleScript, the brightness CLI and
// screencapture; Linux uses brightnessctl, ImageMagick import and pactl.
package main

import (
	"encoding/json"
	"fmt"
	"math"
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

// BrightnessParams is the payload of brightness-set and the result of
// brightness-get.
type BrightnessParams struct {
	Percent int `json:"percent"`
}

// PathParams is the payload of screenshot.
type PathParams struct {
	Path string `json:"path"`
}

// actionHandler handles one action and optionally returns data.
type actionHandler func(params json.RawMessage) (any, error)

// platform holds the commands for one operating system.
type platform struct {
	getBrightness func() (int, error)
	setBrightness func(percent int) error
	screenshot    func(path string) error
	volumeUp      func() error
	volumeDown    func() error
}

func handlers(p platform) map[string]actionHandler {
	return map[string]actionHandler{
		"brightness-get": func(json.RawMessage) (any, error) {
			percent, err := p.getBrightness()
			if err != nil {
				return nil, err
			}
			return BrightnessParams{Percent: percent}, nil
		},
		"brightness-set": func(raw json.RawMessage) (any, error) {
			var b BrightnessParams
			if err := decode(raw, &b); err != nil {
				return nil, err
			}
			return nil, p.setBrightness(clamp(b.Percent))
		},
		"screenshot": func(raw json.RawMessage) (any, error) {
			var s PathParams
			if err := decode(raw, &s); err != nil {
				return nil, err
			}
			if s.Path == "" {
				return nil, fmt.Errorf("path is required")
			}
			return nil, p.screenshot(s.Path)
		},
		"volume-up":   func(json.RawMessage) (any, error) { return nil, p.volumeUp() },
		"volume-down": func(json.RawMessage) (any, error) { return nil, p.volumeDown() },
	}
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	p := linux
	if runtime.GOOS == "darwin" {
		p = macOS
	}

	handler, ok := handlers(p)[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	data, err := handler(req.Params)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}
	writeSuccessResponse(data)
}

var macOS = platform{
	getBrightness: func() (int, error) {
		out, err := output("brightness", "-l")
		if err != nil {
			return 0, err
		}
		return parseMacBrightness(out)
	},
	setBrightness: func(percent int) error {
		return run("brightness", strconv.FormatFloat(float64(percent)/100, 'f', 2, 64))
	},
	screenshot: func(path string) error {
		return run("screencapture", "-x", path)
	},
	// volumeUp increases the system volume by 10%.
	volumeUp: func() error {
		return runAppleScript(`set volume output volume ((output volume of (get volume settings)) + 10)`)
	},
	// volumeDown decreases the system volume by 10%.
	volumeDown: func() error {
		return runAppleScript(`set volume output volume ((output volume of (get volume settings)) - 10)`)
	},
}

var linux = platform{
	getBrightness: func() (int, error) {
		out, err := output("brightnessctl", "-m")
		if err != nil {
			return 0, err
		}
		return parseBrightnessctl(out)
	},
	setBrightness: func(percent int) error {
		return run("brightnessctl", "set", fmt.Sprintf("%d%%", percent))
	},
	screenshot: func(path string) error {
		return run("import", "-window", "root", path)
	},
	volumeUp: func() error {
		return run("pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%")
	},
	volumeDown: func() error {
		return run("pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%")
	},
}

// parseMacBrightness reads the first "display N: brightness F" line of
// "brightness -l".
func parseMacBrightness(out string) (int, error) {
	for _, line := range strings.Split(out, "\n") {
		_, value, ok := strings.Cut(line, "brightness ")
		if !ok || !strings.HasPrefix(strings.TrimSpace(line), "display") {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("bad brightness %q: %w", value, err)
		}
		return clamp(int(math.Round(f * 100))), nil
	}
	return 0, fmt.Errorf("no display brightness in %q", out)
}

// parseBrightnessctl reads the percent field of "brightnessctl -m", e.g.
// "intel_backlight,backlight,4800,50%,9600".
func parseBrightnessctl(out string) (int, error) {
	fields := strings.Split(strings.TrimSpace(out), ",")
	if len(fields) < 4 {
		return 0, fmt.Errorf("unexpected brightnessctl output %q", out)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(fields[3], "%"))
	if err != nil {
		return 0, fmt.Errorf("bad brightness %q: %w", fields[3], err)
	}
	return clamp(n), nil
}

func clamp(percent int) int {
	return max(0, min(100, percent))
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
