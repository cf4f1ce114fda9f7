package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/bouncer/internal/logging"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are checked by middleware.WebSocketCORSCheck before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type outbound struct {
	kind int
	data []byte
}

// Client is one spectator connection watching a run.
type Client struct {
	conn  *websocket.Conn
	runID string
	send  chan outbound
	done  chan struct{}
	once  sync.Once
}

func newClient(conn *websocket.Conn, runID string) *Client {
	return &Client{
		conn:  conn,
		runID: runID,
		send:  make(chan outbound, sendBuffer),
		done:  make(chan struct{}),
	}
}

// close is safe to call more than once.
func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// enqueue blocks until the message is queued or the client goes away.
func (c *Client) enqueue(kind int, data []byte) bool {
	select {
	case c.send <- outbound{kind: kind, data: data}:
		return true
	case <-c.done:
		return false
	}
}

// offer drops the message when the client's buffer is full.
func (c *Client) offer(kind int, data []byte) bool {
	select {
	case c.send <- outbound{kind: kind, data: data}:
		return true
	default:
		return false
	}
}

func (c *Client) sendJSON(v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return c.enqueue(websocket.TextMessage, data)
}

// Hub tracks spectators per run.
type Hub struct {
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	mu         sync.RWMutex
	log        *zap.SugaredLogger
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		log:        logging.Named("ws"),
	}
}

// Run processes registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.quit)
			h.mu.Lock()
			for _, room := range h.rooms {
				for c := range room {
					c.close()
				}
			}
			h.rooms = make(map[string]map[*Client]struct{})
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[c.runID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[c.runID] = room
			}
			room[c] = struct{}{}
			size := len(room)
			h.mu.Unlock()
			h.log.Debugw("spectator joined", "run", c.runID, "room_size", size)
		case c := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[c.runID]; ok {
				delete(room, c)
				if len(room) == 0 {
					delete(h.rooms, c.runID)
				}
			}
			h.mu.Unlock()
			c.close()
			h.log.Debugw("spectator left", "run", c.runID)
		}
	}
}

// join adds c to its run's room. It fails once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
		c.close()
	}
}

// Broadcast sends data to every spectator of runID and returns how many
// accepted it. Slow spectators miss the message.
func (h *Hub) Broadcast(runID string, kind int, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.rooms[runID] {
		if c.offer(kind, data) {
			sent++
		} else {
			h.log.Warnw("spectator buffer full, dropping message", "run", runID)
		}
	}
	return sent
}

func (h *Hub) RoomSize(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[runID])
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump(log *zap.SugaredLogger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				log.Debugw("websocket write", "run", c.runID, "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debugw("websocket ping", "run", c.runID, "error", err)
				c.close()
				return
			}
		}
	}
}

// readPump discards spectator input and returns when the peer goes away.
func (c *Client) readPump() {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
