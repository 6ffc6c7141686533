// Package websocket pushes store events to connected field devices:
// sync progress, shortage transitions, and salesman notifications.
package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event is the envelope every pushed message uses.
type Event struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of connected devices and fans events out to them.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run is the hub's main loop; call it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.DeviceID]; ok {
				// A reconnecting device replaces its old connection.
				close(old.send)
			}
			h.clients[client.DeviceID] = client
			h.mu.Unlock()
			log.Printf("📱 Device connected: %s", client.DeviceID)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.DeviceID]; ok && current == client {
				delete(h.clients, client.DeviceID)
				close(client.send)
				log.Printf("📴 Device disconnected: %s", client.DeviceID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full; the device catches up on its next sync.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast pushes one event to every connected device. It satisfies the
// notifier interfaces of the sync engine and the workflow.
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg, err := json.Marshal(Event{Event: event, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		log.Printf("❌ WS: could not encode event %q: %v", event, err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("⚠️ WS: broadcast queue full, dropping %q", event)
	}
}

// SendToDevice pushes one event to a single device. It reports false when
// the device is not connected or its buffer is full.
func (h *Hub) SendToDevice(deviceID, event string, payload interface{}) bool {
	h.mu.RLock()
	client, ok := h.clients[deviceID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	msg, err := json.Marshal(Event{Event: event, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		log.Printf("❌ WS: could not encode event %q: %v", event, err)
		return false
	}
	select {
	case client.send <- msg:
		return true
	default:
		return false
	}
}

// ConnectedDevices returns the ids of all connected devices.
func (h *Hub) ConnectedDevices() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}
