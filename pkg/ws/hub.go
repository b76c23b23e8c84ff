// Package ws relays decoded feed values to WebSocket clients as JSON.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/helix-lab/helix/brcwatch/pkg/transport"
	"nhooyr.io/websocket"
)

const (
	clientBuffer = 64
	writeTimeout = 5 * time.Second
)

// Event is the JSON document sent to clients.
type Event struct {
	Feed  string  `json:"feed"`
	TsMs  int64   `json:"ts_ms"`
	Count *uint64 `json:"count,omitempty"`

	Hash      string `json:"hash,omitempty"`
	Successes string `json:"successes,omitempty"`
	Failures  string `json:"failures,omitempty"`
}

type client struct {
	msgs chan []byte
	// close ends the client's connection with the given status. It may block
	// for the close handshake.
	close func(code websocket.StatusCode, reason string)
}

// Hub accepts WebSocket clients and broadcasts every value it is given.
// A client that cannot keep up is disconnected; publishing never blocks
// the receive loop.
type Hub struct {
	log *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and streams events until the client goes
// away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Info("WebSocket accept failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	// Clients only listen; CloseRead handles control frames for us.
	ctx := conn.CloseRead(r.Context())

	c := &client{
		msgs: make(chan []byte, clientBuffer),
		close: func(code websocket.StatusCode, reason string) {
			conn.Close(code, reason)
		},
	}
	if !h.add(c) {
		conn.Close(websocket.StatusGoingAway, "relay closed")
		return
	}
	defer h.remove(c)
	h.log.Debug("WebSocket client connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.msgs:
			if err := writeWithTimeout(ctx, conn, msg); err != nil {
				h.log.Debug("WebSocket client dropped", "remote", r.RemoteAddr, "err", err)
				return
			}
		}
	}
}

func writeWithTimeout(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ConnectionCount(at time.Time, n uint64) error {
	return h.publish(Event{
		Feed:  "connections",
		TsMs:  at.UnixMilli(),
		Count: &n,
	})
}

func (h *Hub) Transaction(at time.Time, ev transport.TransactionEvent) error {
	hx := ev.Hex()
	return h.publish(Event{
		Feed:      "transactions",
		TsMs:      at.UnixMilli(),
		Hash:      hx[0],
		Successes: hx[1],
		Failures:  hx[2],
	})
}

// Close disconnects every client with StatusGoingAway and refuses new ones.
// It returns once each close handshake has finished or timed out.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	var wg sync.WaitGroup
	for c := range clients {
		wg.Add(1)
		go func(c *client) {
			defer wg.Done()
			c.close(websocket.StatusGoingAway, "relay closed")
		}(c)
	}
	wg.Wait()
	return nil
}

func (h *Hub) publish(ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.msgs <- b:
		default:
			// Dropped here so later publishes skip it while the close
			// handshake runs.
			delete(h.clients, c)
			go c.close(websocket.StatusPolicyViolation, "connection too slow")
		}
	}
	return nil
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}
