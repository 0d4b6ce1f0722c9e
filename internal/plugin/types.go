// Package plugin discovers and runs the out-of-process actuator plugins.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// Each call runs the executable once, writes a JSON Request to its stdin and
// reads a JSON Response from its stdout.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether the manifest declares action.
func (m Manifest) Supports(action string) bool {
	return slices.Contains(m.Actions, action)
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action string          `json:"action"`
	Label  string          `json:"label,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// NewRequest builds a Request with params marshaled to JSON. A nil params
// leaves Params empty.
func NewRequest(action string, params any) (*Request, error) {
	req := &Request{Action: action}
	if params == nil {
		return req, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params for %s: %w", action, err)
	}
	req.Params = raw
	return req, nil
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ErrNoData is returned by Decode when the response carries no data.
var ErrNoData = errors.New("plugin response has no data")

// Err returns the plugin-reported failure, or nil on success.
func (r *Response) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return errors.New("plugin reported failure")
	}
	return errors.New(r.Error)
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return ErrNoData
	}
	return json.Unmarshal(r.Data, v)
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
