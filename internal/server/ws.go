package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/status"
)

// writeWait bounds each websocket write.
const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatusHandler serves the pipeline status. Plain GET requests receive the
// latest update as JSON; websocket upgrades receive every update as it
// happens.
type StatusHandler struct {
	latest *status.Latest
	hub    *status.Broadcaster
}

// NewStatusHandler creates a StatusHandler. Either argument may be nil.
func NewStatusHandler(latest *status.Latest, hub *status.Broadcaster) *StatusHandler {
	return &StatusHandler{latest: latest, hub: hub}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if websocket.IsWebSocketUpgrade(r) {
		h.stream(w, r)
		return
	}
	h.snapshot(w)
}

func (h *StatusHandler) snapshot(w http.ResponseWriter) {
	var u status.Update
	ok := false
	if h.latest != nil {
		u, ok = h.latest.Get()
	}
	if !ok {
		http.Error(w, "No status yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(u)
}

func (h *StatusHandler) stream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, "Status streaming unavailable", http.StatusNotImplemented)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if h.latest != nil {
		if u, ok := h.latest.Get(); ok {
			if err := writeUpdate(conn, u); err != nil {
				return
			}
		}
	}

	for {
		select {
		case <-closed:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeUpdate(conn, u); err != nil {
				return
			}
		}
	}
}

func writeUpdate(conn *websocket.Conn, u status.Update) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(u)
}
