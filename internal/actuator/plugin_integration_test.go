package actuator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/plugin"
)

// installPlugin writes a shell plugin that appends each request to log and
// answers with reply.
func installPlugin(t *testing.T, root, name, log, reply string, actions []string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat >> " + log + "\necho >> " + log + "\necho '" + reply + "'\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	manifest, _ := json.Marshal(plugin.Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: "run.sh",
		Actions:    actions,
	})
	if err := os.WriteFile(filepath.Join(dir, plugin.ManifestFile), manifest, 0644); err != nil {
		t.Fatal(err)
	}
}

func readRequests(t *testing.T, log string) []plugin.Request {
	t.Helper()
	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatalf("read request log: %v", err)
	}
	var reqs []plugin.Request
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var req plugin.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.Fatalf("bad request %q: %v", line, err)
		}
		reqs = append(reqs, req)
	}
	return reqs
}

func TestPluginActuator_ShellPlugins(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin test on Windows")
	}

	root := t.TempDir()
	inputLog := filepath.Join(root, "input.log")
	systemLog := filepath.Join(root, "system.log")
	installPlugin(t, root, InputPlugin, inputLog, `{"success":true,"data":{"x":5,"y":6}}`,
		[]string{ActionMoveCursor, ActionClick, ActionCursorPosition, ActionKeyPress, ActionKeyDown, ActionKeyUp, ActionTypeText})
	installPlugin(t, root, SystemPlugin, systemLog, `{"success":true,"data":{"percent":70}}`,
		[]string{ActionBrightnessGet, ActionBrightnessSet, ActionScreenshot, ActionVolumeUp, ActionVolumeDown})

	mgr := plugin.NewManager(root)
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	a := NewPluginActuator(mgr, plugin.NewExecutor(5*time.Second), 0)

	if got := a.Brightness(); got != 70 {
		t.Errorf("Brightness() = %d, want 70", got)
	}
	if x, y, ok := a.CursorPosition(); !ok || x != 5 || y != 6 {
		t.Errorf("CursorPosition() = %d, %d, %v", x, y, ok)
	}

	a.KeyDown(KeyAlt)
	a.PressKey(KeyTab)
	a.KeyUp(KeyAlt)
	a.PressKey(KeyVolumeUp)
	a.SetBrightness(80)
	a.Close()

	input := readRequests(t, inputLog)
	want := []string{ActionCursorPosition, ActionKeyDown, ActionKeyPress, ActionKeyUp}
	if len(input) != len(want) {
		t.Fatalf("input requests = %+v, want actions %v", input, want)
	}
	for i, action := range want {
		if input[i].Action != action {
			t.Errorf("input request %d = %s, want %s", i, input[i].Action, action)
		}
	}
	var key KeyParams
	if err := json.Unmarshal(input[2].Params, &key); err != nil || key.Key != KeyTab {
		t.Errorf("key-press params = %s", input[2].Params)
	}

	system := readRequests(t, systemLog)
	wantSystem := []string{ActionBrightnessGet, ActionVolumeUp, ActionBrightnessSet}
	if len(system) != len(wantSystem) {
		t.Fatalf("system requests = %+v, want actions %v", system, wantSystem)
	}
	for i, action := range wantSystem {
		if system[i].Action != action {
			t.Errorf("system request %d = %s, want %s", i, system[i].Action, action)
		}
	}
}
