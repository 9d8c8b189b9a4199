package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event is one message pushed to consoles
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Hub maintains the set of connected consoles and broadcasts events
type Hub struct {
	// Registered clients map: ConsoleID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Outbound events for every client
	broadcast chan []byte

	done     chan struct{}
	stopOnce sync.Once

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		clients:    make(map[string]*Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// If a console connects again, close the old connection
			if old, ok := h.clients[client.ConsoleID]; ok && old != client {
				old.closeSend()
			}
			h.clients[client.ConsoleID] = client
			h.mu.Unlock()
			log.Printf("🖥️ Console connected: %s", client.ConsoleID)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.ConsoleID]; ok && current == client {
				delete(h.clients, client.ConsoleID)
				client.closeSend()
				log.Printf("📴 Console disconnected: %s", client.ConsoleID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				// a full buffer drops the event for that client only
				client.enqueue(message)
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				client.closeSend()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and disconnects every console
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish queues an event for every connected console. It never blocks;
// events are dropped while the queue is full.
func (h *Hub) Publish(eventType string, payload interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Payload: payload, At: time.Now()})
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("⚠️ WS: dropping %s event, queue full", eventType)
	}
}

// Count returns the number of connected consoles
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
