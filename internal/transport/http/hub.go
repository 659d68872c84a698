package http

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// envelope is the wire shape of every websocket message, inbound and out.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client pairs a websocket with its outbound queue. A single writer
// goroutine drains the queue; gorilla connections do not allow
// concurrent writes.
type client struct {
	conn *websocket.Conn
	send chan envelope
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan envelope, 16),
	}
}

// writeLoop pushes queued messages to the socket until the queue closes.
func (c *client) writeLoop() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// queue enqueues without blocking; when the buffer is full the oldest
// message is dropped so one slow client cannot stall a broadcast.
func (c *client) queue(msg envelope) {
	select {
	case c.send <- msg:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Hub tracks which sockets belong to which session room and implements
// app.Broadcaster. The core never sees socket identity; the room name
// is the session's join code.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

func (h *Hub) join(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) leave(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Emit delivers an event to every socket currently in the room.
func (h *Hub) Emit(room, event string, payload any) {
	msg := envelope{Type: event, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		c.queue(msg)
	}
}
