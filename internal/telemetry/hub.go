// Package telemetry is a read-only websocket broadcast hub: spectators
// attach and receive JSON snapshots of the simulation (tick, players,
// weapons, balls). It emits state only — it never consumes input, so it
// stays on the observability side of the rendering non-goal.
package telemetry

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// isValidOrigin allows same-origin and localhost connections.
func isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == originURL.Host {
		return true
	}
	return strings.HasPrefix(originURL.Host, "localhost:") ||
		strings.HasPrefix(originURL.Host, "127.0.0.1:") ||
		originURL.Host == "localhost" ||
		originURL.Host == "127.0.0.1"
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       isValidOrigin,
	EnableCompression: true,
}

// Snapshot is one broadcast frame.
type Snapshot struct {
	Tick    uint32           `json:"tick"`
	Players []PlayerSnapshot `json:"players"`
	Weapons []WeaponSnapshot `json:"weapons,omitempty"`
	Balls   []BallSnapshot   `json:"balls,omitempty"`
}

// PlayerSnapshot is the spectator view of one player.
type PlayerSnapshot struct {
	ID     uint16  `json:"id"`
	Name   string  `json:"name"`
	Freq   uint16  `json:"freq"`
	Ship   uint8   `json:"ship"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Bounty int32   `json:"bounty"`
}

// WeaponSnapshot is the spectator view of one live projectile.
type WeaponSnapshot struct {
	Owner uint16  `json:"owner"`
	Type  uint8   `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// BallSnapshot is the spectator view of one powerball.
type BallSnapshot struct {
	ID      uint16  `json:"id"`
	Carrier uint16  `json:"carrier"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// client is one attached spectator with a buffered send channel; a slow
// client is dropped rather than allowed to stall the hub.
type client struct {
	conn *websocket.Conn
	send chan Snapshot
}

// Hub owns the spectator set and the broadcast loop.
type Hub struct {
	Logger *log.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}

	register   chan *client
	unregister chan *client
	broadcast  chan Snapshot

	// limiter throttles snapshot fan-out to a spectator-friendly rate so a
	// 100 Hz simulation doesn't push 100 frames a second at every viewer.
	limiter *rate.Limiter
}

// NewHub returns a hub broadcasting at most maxPerSecond snapshots.
func NewHub(maxPerSecond float64, logger *log.Logger) *Hub {
	return &Hub{
		Logger:     logger,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Snapshot, 8),
		limiter:    rate.NewLimiter(rate.Limit(maxPerSecond), 1),
	}
}

// Publish offers a snapshot for broadcast; frames beyond the rate limit or
// a full queue are dropped, never blocking the tick loop.
func (h *Hub) Publish(s Snapshot) {
	if !h.limiter.Allow() {
		return
	}
	select {
	case h.broadcast <- s:
	default:
	}
}

// Run drives registration and fan-out; call it on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case s := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- s:
				default:
					// slow spectator: drop it
					go func(c *client) { h.unregister <- c }(c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ServeHTTP upgrades a spectator connection and starts its pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Printf("telemetry: upgrade failed: %v", err)
		}
		return
	}

	c := &client{conn: conn, send: make(chan Snapshot, 16)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for s := range c.send {
		if err := c.conn.WriteJSON(s); err != nil {
			return
		}
	}
}

// readPump discards anything the spectator sends; the hub is read-only.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
