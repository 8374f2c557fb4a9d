package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/CNES/opensand-sub000/pkg/manager"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

// EventType tells the feed clients what changed.
type EventType string

const (
	EventProgramList EventType = "program_list"
	EventProbeValue  EventType = "probe_value"
	EventLog         EventType = "log"
)

// Event is one message of the live feed.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

type ProbeValueEvent struct {
	Probe     string  `json:"probe"`
	FullID    uint16  `json:"full_id"`
	ProbeID   uint8   `json:"probe_id"`
	Timestamp uint32  `json:"timestamp"`
	Value     float64 `json:"value"`
}

type LogEvent struct {
	Program string `json:"program"`
	Name    string `json:"name"`
	Level   string `json:"level"`
	Text    string `json:"text"`
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	clientQueueSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Client is one websocket feed subscriber.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts the controller events to the websocket clients. It is a
// manager.Observer; a slow client is disconnected rather than waited for.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	running    atomic.Bool
	dropped    atomic.Int64
}

// NewHub creates a hub. Run must be called for clients to be served.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 1024),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	if !h.running.CompareAndSwap(false, true) {
		return
	}

	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()

			log.Printf("Feed client %s connected (total: %d)", c.id, total)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()

			log.Printf("Feed client %s disconnected (total: %d)", c.id, total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					log.Printf("Feed client %s is too slow, disconnecting", c.id)
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Publish queues an event for every client. It never blocks.
func (h *Hub) Publish(eventType EventType, data any) {
	message, err := json.Marshal(Event{Type: eventType, Timestamp: time.Now(), Data: data})
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hub) ProgramListChanged() {
	h.Publish(EventProgramList, nil)
}

func (h *Hub) NewProbeValue(probe *manager.Probe, timestamp uint32, value float64) {
	h.Publish(EventProbeValue, ProbeValueEvent{
		Probe:     probe.FullName(),
		FullID:    probe.Program().FullID(),
		ProbeID:   probe.ID(),
		Timestamp: timestamp,
		Value:     value,
	})
}

func (h *Hub) NewLog(program *manager.Program, name string, level wire.LogLevel, text string) {
	h.Publish(EventLog, LogEvent{
		Program: program.FullName(),
		Name:    name,
		Level:   level.String(),
		Text:    text,
	})
}

// ServeHTTP upgrades the request to a websocket feed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	c := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: ws,
		send: make(chan []byte, clientQueueSize),
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = ws.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only watches for the peer going away; clients send nothing.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}

		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error on client %s: %v", c.id, err)
			}

			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
