package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types pushed to subscribers.
const (
	EventSceneCreated = "scene.created"
	EventSceneDeleted = "scene.deleted"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

// Event is the JSON frame sent to clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client is one websocket subscribed to a user's scene events.
type Client struct {
	UserID string
	Send   chan []byte
	Conn   *websocket.Conn
}

// BroadcastMessage targets every client of one user.
type BroadcastMessage struct {
	UserID string
	Data   []byte
}

// Hub fans scene events out to subscribed clients. Run owns the client map;
// other goroutines talk to it through channels.
type Hub struct {
	clients    map[string]map[*Client]bool // userID -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub. Call Run before attaching clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is canceled, then
// closes every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.UserID] {
				select {
				case client.Send <- msg.Data:
				default:
					// Slow consumer; drop it rather than stall the hub.
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
	}
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
	}
}

// Publish queues ev for userID's clients. It never blocks; it reports false
// when the hub is stopped or its queue is full.
func (h *Hub) Publish(userID string, ev Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- BroadcastMessage{UserID: userID, Data: data}:
		return true
	default:
		return false
	}
}

// ActiveClients counts userID's open connections.
func (h *Hub) ActiveClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Attach registers conn for userID and starts its read and write pumps. It
// returns false if the hub has stopped.
func (h *Hub) Attach(conn *websocket.Conn, userID string) bool {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
		Conn:   conn,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return false
	}

	go h.writePump(client)
	go h.readPump(client)
	return true
}

// readPump discards client frames and detects disconnects.
func (h *Hub) readPump(c *Client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
