// Package stream fans subscription events out to connected front-end
// clients. Slow clients drop events rather than stalling the pump.
package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Belloabraham121/warpscan/internal/models"
	"github.com/Belloabraham121/warpscan/pkg/logger"
)

// envelope is the wire shape of one event frame.
type envelope struct {
	Type string       `json:"type"`
	Data models.Event `json:"data"`
}

// Hub multiplexes the manager's event stream onto any number of client
// channels.
type Hub struct {
	mu         sync.RWMutex
	clients    map[chan []byte]bool
	recent     [][]byte
	bufferSize int
	logger     *logger.Logger
}

// NewHub creates a hub keeping the last bufferSize frames for replay to new
// clients.
func NewHub(bufferSize int, log *logger.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Hub{
		clients:    make(map[chan []byte]bool),
		bufferSize: bufferSize,
		logger:     log,
	}
}

// Run pumps events from the manager's stream into the hub until the stream
// closes or ctx is cancelled.
func (h *Hub) Run(ctx context.Context, events <-chan models.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Publish(ev)
		}
	}
}

// Publish serializes ev and sends it to every connected client without
// blocking; a client with a full channel misses the frame.
func (h *Hub) Publish(ev models.Event) {
	data, err := json.Marshal(envelope{Type: ev.EventType(), Data: ev})
	if err != nil {
		h.logger.Error("failed to marshal event for streaming: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = append(h.recent, data)
	if len(h.recent) > h.bufferSize {
		h.recent = h.recent[len(h.recent)-h.bufferSize:]
	}

	for clientChan := range h.clients {
		select {
		case clientChan <- data:
		default:
			h.logger.Debug("client channel full, dropping event")
		}
	}
}

// Subscribe registers a new client, replaying buffered frames first. The
// returned cleanup must be called when the client disconnects.
func (h *Hub) Subscribe() (chan []byte, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientChan := make(chan []byte, h.bufferSize+16)
	for _, data := range h.recent {
		clientChan <- data
	}
	h.clients[clientChan] = true

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.clients[clientChan] {
			delete(h.clients, clientChan)
			close(clientChan)
		}
	}
	return clientChan, cleanup
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
