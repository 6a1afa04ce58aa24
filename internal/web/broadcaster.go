package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// LogEvent is one log line sent to SSE clients.
type LogEvent struct {
	Time  string `json:"t"`
	Level string `json:"l,omitempty"`
	Msg   string `json:"msg"`
}

// Broadcaster fans payloads out to subscribers. Slow subscribers miss
// payloads instead of blocking the sender.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast payloads and a cleanup function.
// The caller must call the returned cleanup when done (e.g. on client disconnect).
func (b *Broadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Send delivers payload to every subscriber with room in its buffer.
func (b *Broadcaster) Send(payload string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// channel full, skip
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Log sends a log line as JSON: {"t":"...","l":"info","msg":"..."}
func (b *Broadcaster) Log(level, msg string) {
	data, err := json.Marshal(LogEvent{
		Time:  time.Now().Format(time.RFC3339),
		Level: level,
		Msg:   msg,
	})
	if err != nil {
		return
	}
	b.Send(string(data))
}

// LogWriter implements io.Writer; each Write is sent as an "info" log line.
// Pass it to debug.SetOutput (through io.MultiWriter) to stream logs.
func LogWriter(b *Broadcaster) *logWriter {
	return &logWriter{b: b}
}

type logWriter struct {
	b *Broadcaster
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		w.b.Log("info", msg)
	}
	return len(p), nil
}
