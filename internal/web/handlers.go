package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/RoboGo/internal/debug"
)

// Stopper stops the path or wall-follow session in progress.
type Stopper interface {
	RequestStop()
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Logs      *Broadcaster
	Telemetry *Hub
	Stopper   Stopper
	staticFS  fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If stopper is nil, POST /stop will return 503 Service Unavailable.
func NewHandlers(logs *Broadcaster, telemetry *Hub, stopper Stopper, staticFS fs.FS) *Handlers {
	return &Handlers{
		Logs:      logs,
		Telemetry: telemetry,
		Stopper:   stopper,
		staticFS:  staticFS,
	}
}

// ServeIndex serves the dashboard page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleStatus returns the latest telemetry snapshot, or 204 before the first one.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	data := h.Telemetry.Latest()
	if data == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// HandleStop handles POST /stop, the remote equivalent of the stop key.
func (h *Handlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Stopper == nil {
		http.Error(w, "stop not configured", http.StatusServiceUnavailable)
		return
	}
	h.Stopper.RequestStop()
	h.Logs.Log("info", "Remote stop requested")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "stop requested"})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Logs.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// HandleWS upgrades to a websocket and streams telemetry snapshots,
// starting with the latest one. Client messages are ignored.
func (h *Handlers) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			debug.Verbose("web: failed to close websocket: %v", err)
		}
	}()

	ch, unsub := h.Telemetry.Subscribe()
	defer unsub()

	// the reader notices the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if latest := h.Telemetry.Latest(); latest != nil {
		if err := conn.WriteMessage(websocket.TextMessage, latest); err != nil {
			return
		}
	}
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
