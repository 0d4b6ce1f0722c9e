package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/signal"
	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/status"
	"github.com/ayusman/mudra/internal/store"
)

func ptr(h detector.HandLandmarks) *detector.HandLandmarks { return &h }

func frameClock() func() time.Time {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	return func() time.Time {
		now := start.Add(time.Duration(tick) * 100 * time.Millisecond)
		tick++
		return now
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func getJSON(t *testing.T, client *http.Client, url string, v any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s decode error = %v", url, err)
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	mock := actuator.NewMockActuator()
	journal := actuator.NewJournal(mock, app.NewEventRecorder(s))
	capture := signal.NewLevel()

	// Speech: the stream reads a few chunks, then lets the pipeline go on.
	enough := make(chan struct{})
	var once sync.Once
	audio := &speech.MockSource{NewStream: func() *speech.MockStream {
		return &speech.MockStream{ChunkSize: 2048, Limit: 3, OnLimit: func() { once.Do(func() { close(enough) }) }}
	}}
	coord := speech.NewCoordinator(speech.CoordinatorConfig{SettleDelay: time.Millisecond},
		capture, audio, speech.NewMockTranscriber(" hello world "), journal)
	coord.Observe(app.NewSessionJournal(s))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx)

	latest := &status.Latest{}
	frames := append(app.Repeat(ptr(detector.HandPose(true, true, false, false, false)), 3),
		app.Repeat(ptr(detector.HandPose(false, true, true, false, false)), 12)...)
	src := app.NewScriptedSource(frames)
	src.OnFrame = func(i int) {
		if i == 3 {
			<-enough
		}
	}

	pipeline, err := app.New(app.Config{Enabled: true, Now: frameClock()}, src, journal, capture, latest)
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	srv := server.New(server.Config{Store: s, Latest: latest})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	t.Run("RunPipeline", func(t *testing.T) {
		if err := pipeline.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		waitFor(t, "capture session", func() bool { return coord.Sessions() == 1 })
		journal.Close()
	})

	t.Run("Actions", func(t *testing.T) {
		if got := mock.Count("PressKey"); got != 1 {
			t.Errorf("PressKey count = %d, want 1", got)
		}
		if got := mock.Count("TypeText"); got != 1 {
			t.Errorf("TypeText count = %d, want 1", got)
		}
	})

	t.Run("EventsAPI", func(t *testing.T) {
		var body struct {
			Events []store.Event `json:"events"`
		}
		getJSON(t, client, ts.URL+"/api/events", &body)

		actions := map[string]string{}
		for _, e := range body.Events {
			actions[e.Action] = e.Detail
			if e.Action == actuator.ActionTypeText && e.Label != "" {
				t.Errorf("type-text event labeled %q", e.Label)
			}
		}
		if len(body.Events) != 2 {
			t.Fatalf("events = %+v, want 2", body.Events)
		}
		if actions[actuator.ActionKeyPress] != actuator.KeySpace {
			t.Errorf("key-press detail = %q, want space", actions[actuator.ActionKeyPress])
		}
		if actions[actuator.ActionTypeText] != "hello world " {
			t.Errorf("type-text detail = %q", actions[actuator.ActionTypeText])
		}
	})

	t.Run("SessionsAPI", func(t *testing.T) {
		var body struct {
			Sessions []struct {
				store.Session
				DurationMS int64 `json:"duration_ms"`
			} `json:"sessions"`
		}
		getJSON(t, client, ts.URL+"/api/sessions", &body)

		if len(body.Sessions) != 1 {
			t.Fatalf("sessions = %+v, want 1", body.Sessions)
		}
		if got := body.Sessions[0]; got.Text != "hello world" || got.Bytes <= 0 || got.Error != "" {
			t.Errorf("session = %+v", got)
		}
	})

	t.Run("StatusAPI", func(t *testing.T) {
		var u status.Update
		getJSON(t, client, ts.URL+"/api/status", &u)

		if u.Label != gesture.VictorySpace || !u.Enabled {
			t.Errorf("status = %+v, want enabled VictorySpace", u)
		}
	})

	t.Run("HealthCheck", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d", resp.StatusCode)
		}
	})
}

func TestE2E_EnabledSettingPersists(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	dbPath := filepath.Join(t.TempDir(), "data.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}

	pipeline, err := app.New(app.Config{Enabled: true}, app.NewScriptedSource(nil), actuator.NewMockActuator(), nil, nil)
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	pipeline.OnEnabledChange(func(enabled bool) {
		if err := s.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			t.Errorf("SetBool() error = %v", err)
		}
	})
	pipeline.Toggle()
	s.Close()

	s, err = store.New(dbPath)
	if err != nil {
		t.Fatalf("reopen store error = %v", err)
	}
	defer s.Close()

	enabled, err := s.Settings().GetBool(store.SettingEnabled, true)
	if err != nil {
		t.Fatalf("GetBool() error = %v", err)
	}
	if enabled {
		t.Error("enabled setting was not persisted as false")
	}
}
