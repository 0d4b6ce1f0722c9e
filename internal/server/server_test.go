package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/status"
)

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	rec := serve(s, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/health status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" || body["uptime"] == nil {
		t.Errorf("health = %v", body)
	}

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		if rec := serve(s, method, "/api/health"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s /api/health status = %d, want %d", method, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.html": "<html><body>mudra</body></html>",
		"app.js":     "console.log('status')",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name      string
		staticDir string
		path      string
		wantCode  int
		wantBody  string
	}{
		{"index at root", dir, "/", http.StatusOK, files["index.html"]},
		{"asset", dir, "/app.js", http.StatusOK, files["app.js"]},
		{"missing asset", dir, "/missing.css", http.StatusNotFound, ""},
		{"unknown api route", dir, "/api/nonexistent", http.StatusNotFound, ""},
		{"no static dir", "", "/", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(New(Config{StaticDir: tt.staticDir}), http.MethodGet, tt.path)
			if rec.Code != tt.wantCode {
				t.Fatalf("GET %s status = %d, want %d", tt.path, rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("GET %s body = %q, want %q", tt.path, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestServer_OptionalRoutes(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/status", "/api/events", "/api/sessions", "/api/stream"} {
		if rec := serve(s, http.MethodGet, path); rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d without its dependency, want %d", path, rec.Code, http.StatusNotFound)
		}
	}
}

func TestStatusHandler_Snapshot(t *testing.T) {
	latest := &status.Latest{}
	s := New(Config{Latest: latest})

	t.Run("no update yet", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
		}
	})

	t.Run("latest update", func(t *testing.T) {
		latest.Update(status.Update{Label: gesture.FistAltTab, Progress: 0.5, Note: "ALT HELD", Enabled: true})

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var got struct {
			Label    string  `json:"label"`
			Progress float64 `json:"progress"`
			Note     string  `json:"note"`
			Enabled  bool    `json:"enabled"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if got.Label != "Fist / Alt-Tab" || got.Progress != 0.5 || got.Note != "ALT HELD" || !got.Enabled {
			t.Errorf("status = %+v", got)
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}
