// Package realtime pushes freshly created notifications to users connected
// over WebSocket. A user may hold several connections (tabs, devices); every
// one of them receives each event.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxInbound = 512
)

// Message is the JSON frame written to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Conn is one registered WebSocket connection. Writes are serialized.
type Conn struct {
	userID uint
	ws     *websocket.Conn
	mu     sync.Mutex
	done   chan struct{}
	once   sync.Once
}

func (c *Conn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// Send writes msg to this connection only.
func (c *Conn) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// Hub tracks live connections per user.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[*Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Conn]struct{})}
}

// Register adds ws for userID and returns its handle.
func (h *Hub) Register(userID uint, ws *websocket.Conn) *Conn {
	c := &Conn{userID: userID, ws: ws, done: make(chan struct{})}
	h.mu.Lock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	log.Debug().Uint("user_id", userID).Msg("websocket registered")
	return c
}

// Unregister removes c and closes it.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	if set, ok := h.conns[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, c.userID)
		}
	}
	h.mu.Unlock()
	c.close()

	log.Debug().Uint("user_id", c.userID).Msg("websocket unregistered")
}

// Online reports how many connections userID currently holds.
func (h *Hub) Online(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Publish sends msg to every connection of userID and returns how many
// writes succeeded. Connections that fail to write are dropped.
func (h *Hub) Publish(userID uint, msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("websocket marshal failed")
		return 0
	}

	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := c.write(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Uint("user_id", userID).Msg("websocket write failed")
			h.Unregister(c)
			continue
		}
		delivered++
	}
	return delivered
}

// Serve runs the keepalive loop for c until the peer goes away, then
// unregisters it. Inbound frames are read and discarded; the stream is
// server to client only.
func (h *Hub) Serve(c *Conn) {
	defer h.Unregister(c)

	go h.pinger(c)

	c.ws.SetReadLimit(maxInbound)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Uint("user_id", c.userID).Msg("websocket closed")
			}
			return
		}
	}
}

func (h *Hub) pinger(c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// CloseAll closes every connection; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := h.conns
	h.conns = make(map[uint]map[*Conn]struct{})
	h.mu.Unlock()
	for _, set := range all {
		for c := range set {
			c.close()
		}
	}
}
