package stream

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

const (
	// writeWait bounds every write; a client that cannot keep up is dropped.
	writeWait = 2 * time.Second

	// sendQueue is how many frames may wait for a client's writer before
	// the client counts as stalled.
	sendQueue = 16
)

// client is one websocket peer. Frames reach it through send, drained by its
// own writer goroutine, so a slow peer never holds up the tick loop.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks websocket clients and fans frames out to them.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	hello    []byte
}

// NewHub creates a hub whose clients are greeted with the TOML rendering of p.
func NewHub(p flock.Params) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		hello: []byte(p.TOML()),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// add greets conn and registers it. The hello is written before the client's
// writer starts, so it is always the first message.
func (h *Hub) add(conn *websocket.Conn) (*client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, h.hello); err != nil {
		return nil, err
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueue)}
	h.clients[c] = struct{}{}
	return c, nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked unregisters c and closes its connection. h.mu must be held.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	c.conn.Close()
}

// writeLoop drains c.send until the client is dropped or a write fails.
func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			log.Printf("dropping client %s: %v", c.conn.RemoteAddr(), err)
			h.remove(c)
			return
		}
	}
}

// Broadcast queues f for every client and returns how many accepted it. It
// never blocks on the network: a client whose queue is full is dropped.
func (h *Hub) Broadcast(f flock.Frame) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return 0
	}

	// Writers read msg after Broadcast returns, so it is never reused.
	msg := EncodeFrame(f)
	sent := 0
	for c := range h.clients {
		select {
		case c.send <- msg:
			sent++
		default:
			log.Printf("dropping stalled client %s", c.conn.RemoteAddr())
			h.dropLocked(c)
		}
	}
	return sent
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "simulation stopped"),
			time.Now().Add(writeWait))
		h.dropLocked(c)
	}
}

// Handler upgrades requests to websocket connections and registers them.
// Incoming messages are ignored; the read loop only notices disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		c, err := h.add(conn)
		if err != nil {
			log.Printf("websocket hello failed: %v", err)
			conn.Close()
			return
		}
		defer h.remove(c)
		go h.writeLoop(c)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("pose stream read error: %v", err)
				}
				return
			}
		}
	}
}
