package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    []string{"test"},
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plug := scriptPlugin(t, "ok", `echo '{"success":true,"data":{"percent":70}}'`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plug, &Request{Action: "test"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := resp.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}

	var data struct {
		Percent int `json:"percent"`
	}
	if err := resp.Decode(&data); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if data.Percent != 70 {
		t.Errorf("percent = %d, want 70", data.Percent)
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plug := scriptPlugin(t, "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":$INPUT}"
`)

	req, err := NewRequest("key-press", map[string]string{"key": "space"})
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Label = "Victory / Space"

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plug, req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var echoed Request
	if err := resp.Decode(&echoed); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if echoed.Action != "key-press" {
		t.Errorf("action = %q, want key-press", echoed.Action)
	}
	if echoed.Label != "Victory / Space" {
		t.Errorf("label = %q", echoed.Label)
	}
	var params map[string]string
	if err := json.Unmarshal(echoed.Params, &params); err != nil {
		t.Fatalf("params: %v", err)
	}
	if params["key"] != "space" {
		t.Errorf("params[key] = %q, want space", params["key"])
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plug := scriptPlugin(t, "slow", "sleep 10\necho '{\"success\":true}'\n")

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), plug, &Request{Action: "test"})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Execute() did not stop at the timeout")
	}
}

func TestExecutor_ContextCancelled(t *testing.T) {
	plug := scriptPlugin(t, "slow", "sleep 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewExecutor(5*time.Second).Execute(ctx, plug, &Request{Action: "test"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plug := scriptPlugin(t, "fail", `echo '{"success":false,"error":"xdotool not installed"}'`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plug, &Request{Action: "test"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Err() == nil || resp.Err().Error() != "xdotool not installed" {
		t.Errorf("Err() = %v", resp.Err())
	}
	if err := resp.Decode(&struct{}{}); err != ErrNoData {
		t.Errorf("Decode() error = %v, want ErrNoData", err)
	}
}

func TestExecutor_Execute_BadOutput(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"invalid json", "echo 'not valid json'\n"},
		{"non-zero exit", "echo 'boom' >&2\nexit 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plug := scriptPlugin(t, "bad", tt.script)
			if _, err := NewExecutor(5*time.Second).Execute(context.Background(), plug, &Request{Action: "test"}); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", got)
	}
	if got := NewExecutor(0).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want default %v", got, DefaultTimeout)
	}
}

func TestNewRequest_NilParams(t *testing.T) {
	req, err := NewRequest("click", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if req.Params != nil {
		t.Errorf("Params = %s, want empty", req.Params)
	}
}
