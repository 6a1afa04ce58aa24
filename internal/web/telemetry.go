package web

import (
	"encoding/json"
	"sync"

	"github.com/cjeanneret/RoboGo/internal/debug"
	"github.com/cjeanneret/RoboGo/internal/logic/mission"
)

// Hub keeps the latest mission telemetry and pushes every update to
// websocket subscribers. It implements mission.Publisher.
type Hub struct {
	*Broadcaster

	mu     sync.RWMutex
	latest []byte
}

func NewHub() *Hub {
	return &Hub{Broadcaster: NewBroadcaster()}
}

// Publish stores t as the latest snapshot and broadcasts it.
func (h *Hub) Publish(t mission.Telemetry) {
	data, err := json.Marshal(t)
	if err != nil {
		debug.Error(err)
		return
	}
	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()
	h.Send(string(data))
}

// Latest returns the last published snapshot as JSON, or nil.
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}
