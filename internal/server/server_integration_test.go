package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/status"
	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_EventsAndSessions(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	if err := st.Events().Create(&store.Event{Label: "Victory / Space", Action: "key-press", Detail: "space"}); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	now := time.Now()
	if err := st.Sessions().Create(&store.Session{ID: "s1", StartedAt: now, EndedAt: now.Add(time.Second), Text: "hi"}); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	ts := httptest.NewServer(New(Config{Store: st}))
	defer ts.Close()

	for path, key := range map[string]string{"/api/events": "events", "/api/sessions": "sessions"} {
		resp, err := ts.Client().Get(ts.URL + path + "?limit=10")
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		var body map[string][]json.RawMessage
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
		if len(body[key]) != 1 {
			t.Errorf("GET %s returned %d %s, want 1", path, len(body[key]), key)
		}
	}
}

func TestAPI_StatusWebSocket(t *testing.T) {
	latest := &status.Latest{}
	hub := status.NewBroadcaster()
	latest.Update(status.Update{Label: gesture.Scanning})

	ts := httptest.NewServer(New(Config{Latest: latest, Broadcaster: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/status"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first status.Update
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if first.Label != gesture.Scanning {
		t.Errorf("first update label = %v, want the latest snapshot", first.Label)
	}

	deadline := time.Now().Add(time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.Update(status.Update{Label: gesture.VictorySpace, Fired: "space"})

	var next status.Update
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if next.Label != gesture.VictorySpace || next.Fired != "space" {
		t.Errorf("pushed update = %+v", next)
	}

	conn.Close()
	deadline = time.Now().Add(time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after client closed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// fakeFrames is a FrameSource publishing frames on demand.
type fakeFrames struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	next    chan struct{}
	viewers int
}

func newFakeFrames() *fakeFrames {
	return &fakeFrames{next: make(chan struct{})}
}

func (f *fakeFrames) Watch() func() {
	f.mu.Lock()
	f.viewers++
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.viewers--
		f.mu.Unlock()
	}
}

func (f *fakeFrames) Latest() ([]byte, uint64, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jpeg, f.seq, f.next
}

func (f *fakeFrames) publish(jpeg []byte) {
	f.mu.Lock()
	f.jpeg = jpeg
	f.seq++
	close(f.next)
	f.next = make(chan struct{})
	f.mu.Unlock()
}

func (f *fakeFrames) Viewers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewers
}

func TestAPI_Stream(t *testing.T) {
	frames := newFakeFrames()
	ts := httptest.NewServer(New(Config{Frames: frames}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)

	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for frames.Viewers() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		frames.publish([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	}()

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	var headers []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading part header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		headers = append(headers, line)
	}
	if len(headers) != 3 || headers[0] != "--frame" || headers[2] != "Content-Length: 4" {
		t.Errorf("part headers = %q", headers)
	}

	body := make([]byte, 4)
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("reading part body: %v", err)
	}
	if body[0] != 0xFF || body[1] != 0xD8 {
		t.Errorf("part body = %x", body)
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	srv := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after cancel", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}
