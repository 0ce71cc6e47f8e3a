package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/kingdom-sim/internal/engine"
)

const (
	maxStreamClients = 16
	streamBuffer     = 8
)

// Hub fans one snapshot per tick out to websocket clients. Slow clients
// miss frames rather than stall the tick.
type Hub struct {
	sim      *engine.Simulation
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewHub creates a hub and subscribes it to sim.
func NewHub(sim *engine.Simulation) *Hub {
	h := &Hub{
		sim: sim,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[chan []byte]struct{}),
	}
	sim.Subscribe(func(engine.TickReport) { h.Broadcast() })
	return h
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends the current snapshot to every client.
func (h *Hub) Broadcast() {
	if h.Clients() == 0 {
		return
	}
	b, err := json.Marshal(h.sim.Snapshot())
	if err != nil {
		slog.Error("snapshot encode failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- b:
		default:
		}
	}
}

func (h *Hub) join() (chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= maxStreamClients {
		return nil, false
	}
	ch := make(chan []byte, streamBuffer)
	h.clients[ch] = struct{}{}
	return ch, true
}

func (h *Hub) leave(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
}

// ServeHTTP upgrades the request and streams snapshots until the client
// goes away. The first frame is the snapshot at connect time.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	out, ok := h.join()
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many clients"), time.Now().Add(time.Second))
		return
	}
	defer h.leave(out)
	slog.Info("stream client connected", "remote", r.RemoteAddr, "clients", h.Clients())

	if b, err := json.Marshal(h.sim.Snapshot()); err == nil {
		out <- b
	}

	// Reader: we only care about close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			slog.Info("stream client disconnected", "remote", r.RemoteAddr)
			return
		case b := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}
