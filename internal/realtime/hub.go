package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Hub keeps the set of connected WebSocket clients and broadcasts every
// frame to all of them. A client whose send buffer is full is dropped.
type Hub struct {
	log        *zap.Logger
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	count      atomic.Int64
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns a hub accepting upgrades from any origin listed in
// origins; an empty list or "*" accepts all.
func NewHub(log *zap.Logger, origins []string) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(allowed) == 0 || allowed[origin]
	}
}

// Run serves register/unregister/broadcast until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	clients := make(map[*client]struct{})
	defer func() {
		for c := range clients {
			close(c.send)
		}
		h.count.Store(0)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-h.register:
			clients[c] = struct{}{}
			h.count.Store(int64(len(clients)))
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.count.Store(int64(len(clients)))
			}
		case frame := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- frame:
				default:
					h.log.Warn("dropping slow websocket client", zap.String("remote", c.conn.RemoteAddr().String()))
					delete(clients, c)
					close(c.send)
				}
			}
			h.count.Store(int64(len(clients)))
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Broadcast queues frame for every client without blocking.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	default:
		h.log.Warn("broadcast queue full, event dropped")
	}
}

// Publish encodes ev and broadcasts it to the clients of this process.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	frame, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.Broadcast(frame)
	return nil
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump discards client messages; it exists to process pongs and to
// notice disconnects.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
